package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/service"
	"github.com/spf13/cobra"
)

func printOut(cmd *cobra.Command, s string) {
	out := cmd.OutOrStdout()
	if strings.HasSuffix(s, "\n") {
		io.WriteString(out, s)
		return
	}
	fmt.Fprintln(out, s)
}

func parseIndex(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("criterion index %q must be a non-negative integer", arg)
	}
	return i, nil
}

// resolvePlanID matches a full id or a unique prefix among the plans the
// actor owns or curates. Unmatched input is returned as-is so the service
// reports it.
func resolvePlanID(ctx context.Context, app *App, actor, input string) (string, error) {
	owned, err := app.Plans.ListOwned(ctx, actor)
	if err != nil {
		return "", err
	}
	shared, err := app.Plans.ListShared(ctx, actor)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, p := range append(owned, shared...) {
		if p.ID == input {
			return p.ID, nil
		}
		if strings.HasPrefix(p.ID, input) {
			matches = append(matches, p.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return input, nil
	default:
		return "", fmt.Errorf("plan id prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// stringFlag returns a pointer to the flag value when the user set it.
func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func intFlag(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}

func priorityFlag(cmd *cobra.Command, name string) (*domain.Priority, error) {
	s := stringFlag(cmd, name)
	if s == nil {
		return nil, nil
	}
	p, err := domain.ParsePriority(*s)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func statusFlag(cmd *cobra.Command, name string) (*domain.Status, error) {
	s := stringFlag(cmd, name)
	if s == nil {
		return nil, nil
	}
	st, err := domain.ParseStatus(*s)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// optionalETA maps an empty --eta to nil.
func optionalETA(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// resolveSkillID matches a full skill id or a unique prefix across the
// actor's plans, the way resolvePlanID does for plans.
func resolveSkillID(ctx context.Context, app *App, actor, input string) (string, error) {
	owned, err := app.Plans.ListOwned(ctx, actor)
	if err != nil {
		return "", err
	}
	shared, err := app.Plans.ListShared(ctx, actor)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, p := range append(owned, shared...) {
		skills, err := app.Skills.ListByPlan(ctx, actor, p.ID)
		if err != nil {
			return "", err
		}
		for _, sk := range skills {
			if sk.ID == input {
				return sk.ID, nil
			}
			if strings.HasPrefix(sk.ID, input) {
				matches = append(matches, sk.ID)
			}
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return input, nil
	default:
		return "", fmt.Errorf("skill id prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// resolveEntryID matches a full entry id or a unique prefix within one
// criterion's ledger.
func resolveEntryID(ctx context.Context, app *App, actor string, ref service.CriterionRef, input string) (string, error) {
	entries, err := app.Progress.List(ctx, actor, ref)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, e := range entries {
		if e.ID == input {
			return e.ID, nil
		}
		if strings.HasPrefix(e.ID, input) {
			matches = append(matches, e.ID)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("entry id prefix %q is ambiguous (%d matches)", input, len(matches))
	}
	return input, nil
}

// resolveTemplateID matches a full id or a unique prefix among published
// templates.
func resolveTemplateID(ctx context.Context, app *App, input string) (string, error) {
	templates, err := app.Templates.ListPublished(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, t := range templates {
		if t.ID == input {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, input) {
			matches = append(matches, t.ID)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("template id prefix %q is ambiguous (%d matches)", input, len(matches))
	}
	return input, nil
}
