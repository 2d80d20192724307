package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pgship/pgship"
	"github.com/pgship/pgship/transport"
)

// newExecCommand creates the exec command.
func newExecCommand() *cobra.Command {
	var endpoint string
	var token string
	var params []string
	var asJSON bool
	var timeout time.Duration
	var verbose bool

	cmd := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Execute one SQL statement",
		Long: `Execute a single SQL statement against the configured endpoint.

The statement may use positional placeholders ($1, $2, ...) bound to
--param flags in order. The endpoint is taken from --url or the
PGSHIP_URL environment variable; a bearer token from --token or
PGSHIP_TOKEN.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(args[0], endpoint, token, params, asJSON, timeout, verbose)
		},
	}

	cmd.Flags().StringVar(&endpoint, "url", "", "statement endpoint URL (default $PGSHIP_URL)")
	cmd.Flags().StringVar(&token, "token", "", "bearer token (default $PGSHIP_TOKEN)")
	cmd.Flags().StringArrayVar(&params, "param", nil, "positional parameter, repeatable")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print rows as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "round-trip timeout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log request details")

	return cmd
}

func runExec(sql, endpoint, token string, params []string, asJSON bool, timeout time.Duration, verbose bool) error {
	if endpoint == "" {
		endpoint = os.Getenv("PGSHIP_URL")
	}
	if endpoint == "" {
		return errors.New("no endpoint: pass --url or set PGSHIP_URL")
	}
	if token == "" {
		token = os.Getenv("PGSHIP_TOKEN")
	}

	cfg, err := transport.ParseURL(endpoint)
	if err != nil {
		return err
	}
	if token != "" {
		cfg.Token = token
	}
	cfg.Timeout = timeout
	if verbose {
		logger := logrus.New()
		logger.SetLevel(logrus.DebugLevel)
		cfg.Logger = logger
	}

	t, err := transport.NewHTTP(cfg)
	if err != nil {
		return err
	}
	client := pgship.New(t)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	res, err := client.Exec(ctx, sql, params)
	if err != nil {
		return err
	}
	return printResult(res, asJSON)
}

func printResult(res *pgship.Result, asJSON bool) error {
	if asJSON {
		rows := make([]map[string]any, len(res.Rows))
		for i, row := range res.Rows {
			m := make(map[string]any, len(res.Columns))
			for j, col := range res.Columns {
				m[col] = row[j]
			}
			rows[i] = m
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if len(res.Columns) > 0 {
		fmt.Fprintln(w, strings.Join(res.Columns, "\t"))
	}
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%s (%d rows)\n", res.Command, res.Count)
	return nil
}
