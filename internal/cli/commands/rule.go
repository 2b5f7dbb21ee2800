package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/reservoireye/internal/alert"
	"github.com/reservoireye/internal/models"
	"github.com/spf13/cobra"
)

func NewRuleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Manage alert rules",
	}

	cmd.AddCommand(newRuleListCommand())
	cmd.AddCommand(newRuleCreateCommand())
	cmd.AddCommand(newRuleUpdateCommand())
	cmd.AddCommand(newRuleDeleteCommand())
	cmd.AddCommand(newRuleToggleCommand("enable", "Enable an alert rule", true))
	cmd.AddCommand(newRuleToggleCommand("disable", "Disable an alert rule", false))
	cmd.AddCommand(newRuleTestCommand())
	return cmd
}

func printRules(out io.Writer, rules []models.AlertRule) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tRESERVOIR\tCONDITION\tTHRESHOLD\tACTIVE")
	for _, r := range rules {
		fmt.Fprintf(w, "%d\t%d\t%s (%s)\t%.2f\t%v\n",
			r.ID, r.ReservoirID, r.ConditionType, r.ConditionType.Symbol(), r.Threshold, r.IsActive)
	}
	return w.Flush()
}

func newRuleListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list [reservoir_id]",
		Short:   "List the alert rules of a reservoir",
		Aliases: []string{"ls"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reservoirID, err := parseID(args[0], "reservoir")
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			rules, err := c.ListRules(reservoirID)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}
			return printRules(cmd.OutOrStdout(), rules)
		},
	}
}

func newRuleCreateCommand() *cobra.Command {
	var (
		condition string
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "create [reservoir_id]",
		Short: "Create an alert rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reservoirID, err := parseID(args[0], "reservoir")
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			rule, err := c.CreateRule(reservoirID, models.ConditionType(condition), threshold)
			if err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rule %d created\n", rule.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&condition, "condition", "", "greater_than, less_than, equals, not_equals, greater_than_or_equal or less_than_or_equal")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Threshold value")
	cmd.MarkFlagRequired("condition")
	cmd.MarkFlagRequired("threshold")
	return cmd
}

func newRuleUpdateCommand() *cobra.Command {
	var (
		condition string
		threshold float64
		active    bool
	)

	cmd := &cobra.Command{
		Use:   "update [rule_id]",
		Short: "Update an alert rule; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "rule")
			if err != nil {
				return err
			}

			var update alert.RuleUpdate
			if cmd.Flags().Changed("condition") {
				ct := models.ConditionType(condition)
				update.ConditionType = &ct
			}
			if cmd.Flags().Changed("threshold") {
				update.Threshold = &threshold
			}
			if cmd.Flags().Changed("active") {
				update.IsActive = &active
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			rule, err := c.UpdateRule(id, update)
			if err != nil {
				return fmt.Errorf("failed to update rule: %w", err)
			}
			return printRules(cmd.OutOrStdout(), []models.AlertRule{*rule})
		},
	}

	cmd.Flags().StringVar(&condition, "condition", "", "New condition type")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "New threshold")
	cmd.Flags().BoolVar(&active, "active", true, "Whether the rule is evaluated")
	return cmd
}

func newRuleDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [rule_id]",
		Short: "Delete an alert rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "rule")
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.DeleteRule(id); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rule %d deleted\n", id)
			return nil
		},
	}
}

func newRuleToggleCommand(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [rule_id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "rule")
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			if active {
				_, err = c.EnableRule(id)
			} else {
				_, err = c.DisableRule(id)
			}
			if err != nil {
				return fmt.Errorf("failed to %s rule: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rule %d %sd\n", id, use)
			return nil
		},
	}
}

func newRuleTestCommand() *cobra.Command {
	var (
		condition string
		threshold float64
		value     float64
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check whether a value would trigger a condition",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			triggered, err := c.TestRule(models.ConditionType(condition), threshold, value)
			if err != nil {
				return fmt.Errorf("failed to test rule: %w", err)
			}
			ct := models.ConditionType(condition)
			fmt.Fprintf(cmd.OutOrStdout(), "%g %s %g: triggered=%v\n", value, ct.Symbol(), threshold, triggered)
			return nil
		},
	}

	cmd.Flags().StringVar(&condition, "condition", "", "Condition type")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Threshold value")
	cmd.Flags().Float64Var(&value, "value", 0, "Sample measurement value")
	cmd.MarkFlagRequired("condition")
	cmd.MarkFlagRequired("value")
	return cmd
}
