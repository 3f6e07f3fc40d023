package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/uniportal/uniportal-rbac/internal/daemon"
	"github.com/uniportal/uniportal-rbac/internal/db/models"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
)

type checkFlags struct {
	user       string
	permission string
	at         string
	scope      string
}

var checkOpts checkFlags

func init() { //nolint: gochecknoinits
	checkCmd.Flags().StringVarP(&checkOpts.user, "user", "u", "", "user id to check (required)")
	checkCmd.Flags().StringVarP(&checkOpts.permission, "permission", "p", "",
		"permission to decide; without it the effective permissions are printed")
	checkCmd.Flags().StringVar(&checkOpts.at, "at", "",
		"RFC 3339 time; past times are answered from the audit log")
	checkCmd.Flags().StringVar(&checkOpts.scope, "scope", "", "request scope, e.g. department=Physics")
	_ = checkCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolve the permissions of a user or decide a single permission",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, svc, err := daemon.Open(&cfg)
		if err != nil {
			return err
		}

		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		return runCheck(cmd.Context(), cmd.OutOrStdout(), svc, checkOpts, time.Now())
	},
}

// runCheck prints either a decision or a resolution as indented JSON.
func runCheck(ctx context.Context, out io.Writer, svc *rbac.Service, f checkFlags, now time.Time) error {
	if ctx == nil {
		ctx = context.Background()
	}

	scope, err := models.ParseScope(f.scope)
	if err != nil {
		return err
	}

	at := now
	if f.at != "" {
		if at, err = time.Parse(time.RFC3339, f.at); err != nil {
			return fmt.Errorf("--at: %w", err)
		}
	}

	var res *rbac.Resolution

	if at.Before(now) {
		res, err = svc.Resolver.ResolveHistorical(ctx, f.user, at)
	} else {
		res, err = svc.Resolver.Resolve(ctx, f.user, at)
	}

	if err != nil {
		return err
	}

	var v any = res

	if f.permission != "" {
		var cc *rbac.CheckContext
		if !scope.IsEmpty() {
			cc = &rbac.CheckContext{Scope: scope}
		}

		v = rbac.Evaluate(res, f.permission, cc)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
