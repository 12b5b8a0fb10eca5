package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/project-scout/internal/observability"
)

var (
	matchEmployeeID int64
	matchProjectID  int64
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank projects for an employee, or score one project",
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().Int64Var(&matchEmployeeID, "employee", 0, "Employee ID")
	matchCmd.Flags().Int64Var(&matchProjectID, "project", 0, "Project ID (omit to rank all projects)")
	_ = matchCmd.MarkFlagRequired("employee")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer a.close()

	employee, err := a.db.GetEmployeeByID(ctx, matchEmployeeID)
	if err != nil {
		return err
	}
	if employee == nil {
		return fmt.Errorf("employee not found: %d", matchEmployeeID)
	}

	printer := observability.NewPrinter(os.Stdout)

	if matchProjectID != 0 {
		project, err := a.db.GetProjectByID(ctx, matchProjectID)
		if err != nil {
			return err
		}
		if project == nil {
			return fmt.Errorf("project not found: %d", matchProjectID)
		}

		result, err := a.matcher.Match(ctx, project, employee)
		if err != nil {
			return err
		}

		fmt.Printf("%s vs %q\n", employee.Name, project.Title)
		printer.PrintMatchResult(result)
		return nil
	}

	projects, err := a.db.ListProjects(ctx)
	if err != nil {
		return err
	}
	corpus, err := a.matcher.MatchAll(ctx, projects, employee)
	if err != nil {
		return err
	}

	titles := make(map[int64]string, len(projects))
	for _, p := range projects {
		titles[p.ID] = p.Title
	}
	fmt.Printf("%s vs %d projects\n", employee.Name, len(projects))
	printer.PrintRanking(corpus, titles)
	return nil
}
