package rbac

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/uniportal/uniportal-rbac/internal/db/models"
)

// ReasonUnavailable is the reason given when permissions could not be resolved.
const ReasonUnavailable = "resolution unavailable"

// CheckContext carries the situation a permission is exercised in.
type CheckContext struct {
	// Scope, when set, must be matched by the scope of a granting assignment.
	Scope models.Scope `json:"scope,omitempty"`
}

// Decision is the answer of the gate.
type Decision struct {
	Permission string   `json:"permission"`
	Granted    bool     `json:"granted"`
	Reason     string   `json:"reason"`
	Roles      []string `json:"roles,omitempty"`
}

// Gate answers "does user U hold permission P right now".
// It is the only surface route guards and UI code should use. Any failure to
// resolve permissions denies access.
type Gate struct {
	resolver *Resolver
}

// HasPermission decides whether userID holds permissionID now, within cc if given.
func (g *Gate) HasPermission(ctx context.Context, userID, permissionID string, cc *CheckContext) Decision {
	res, err := g.resolver.ResolveNow(ctx, userID)
	if err != nil {
		return unavailable(userID, permissionID, err)
	}

	d := Evaluate(res, permissionID, cc)
	record(d)

	return d
}

// HasAnyPermission grants when at least one of permissionIDs is granted.
// An empty list is never granted.
func (g *Gate) HasAnyPermission(ctx context.Context, userID string, permissionIDs []string, cc *CheckContext) Decision {
	if len(permissionIDs) == 0 {
		return Decision{Reason: "no permission requested"}
	}

	res, err := g.resolver.ResolveNow(ctx, userID)
	if err != nil {
		return unavailable(userID, strings.Join(permissionIDs, ","), err)
	}

	var last Decision

	for _, p := range permissionIDs {
		last = Evaluate(res, p, cc)
		if last.Granted {
			break
		}
	}

	record(last)

	return last
}

// HasAllPermissions grants when every one of permissionIDs is granted.
// The returned decision names the first missing permission.
func (g *Gate) HasAllPermissions(ctx context.Context, userID string, permissionIDs []string, cc *CheckContext) Decision {
	res, err := g.resolver.ResolveNow(ctx, userID)
	if err != nil {
		return unavailable(userID, strings.Join(permissionIDs, ","), err)
	}

	all := Decision{Permission: strings.Join(permissionIDs, ","), Granted: true, Reason: "all permissions granted"}

	for _, p := range permissionIDs {
		d := Evaluate(res, p, cc)
		if !d.Granted {
			record(d)
			return d
		}

		all.Roles = mergeNames(all.Roles, d.Roles)
	}

	record(all)

	return all
}

// EffectivePermissions lists the permissions userID holds now.
// Callers must treat an error as holding nothing.
func (g *Gate) EffectivePermissions(ctx context.Context, userID string) ([]string, error) {
	res, err := g.resolver.ResolveNow(ctx, userID)
	if err != nil {
		return nil, err
	}

	return slices.Clone(res.Permissions), nil
}

// Evaluate decides permissionID against an already computed resolution.
// When cc carries a scope, a scoped assignment only grants if its scope
// matches; unscoped assignments grant in every context.
func Evaluate(res *Resolution, permissionID string, cc *CheckContext) Decision {
	d := Decision{Permission: permissionID}

	grants := res.GrantsFor(permissionID)
	if len(grants) == 0 {
		d.Reason = fmt.Sprintf("no role in effect grants %s", permissionID)
		return d
	}

	var matching, outside []string

	for _, gr := range grants {
		if cc == nil || cc.Scope.IsEmpty() || gr.Assignment.Scope.Matches(cc.Scope) {
			matching = mergeNames(matching, []string{gr.Role.Name})
		} else {
			outside = mergeNames(outside, []string{gr.Role.Name + " (" + gr.Assignment.Scope.String() + ")"})
		}
	}

	if len(matching) == 0 {
		d.Reason = fmt.Sprintf("%s is only granted outside scope %s by %s",
			permissionID, cc.Scope.String(), strings.Join(outside, ", "))

		return d
	}

	d.Granted = true
	d.Roles = matching
	d.Reason = "granted by " + strings.Join(matching, ", ")

	return d
}

func unavailable(userID, permission string, err error) Decision {
	log.Error().Err(err).Str("user_id", userID).Str("permission", permission).
		Msg("permission check failed closed")
	checksTotal.WithLabelValues(resultUnavailable).Inc()

	return Decision{Permission: permission, Granted: false, Reason: ReasonUnavailable}
}

func record(d Decision) {
	if d.Granted {
		checksTotal.WithLabelValues(resultGranted).Inc()
		return
	}

	checksTotal.WithLabelValues(resultDenied).Inc()
}

func mergeNames(names, more []string) []string {
	for _, n := range more {
		if !slices.Contains(names, n) {
			names = append(names, n)
		}
	}

	slices.Sort(names)

	return names
}
