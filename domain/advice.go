package domain

import (
	"fmt"
	"strings"
)

// AdviceTaskLimit caps how many recent task lines are included in the
// advice context block.
const AdviceTaskLimit = 5

// AdviceContext is the slice of productivity data handed to the advice
// generator alongside the user's query.
type AdviceContext struct {
	TotalTasks     int
	CompletedTasks int
	PendingTasks   int
	FocusMinutes   int
	RecentTasks    []Task
}

// BuildAdviceContext derives the advice context from a user's tasks (most
// recent first) and the current day's focus sessions.
func BuildAdviceContext(tasks []Task, sessions []FocusSession) AdviceContext {
	ctx := AdviceContext{TotalTasks: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			ctx.CompletedTasks++
		}
	}
	ctx.PendingTasks = ctx.TotalTasks - ctx.CompletedTasks
	for _, s := range sessions {
		if s.Type == SessionFocus {
			ctx.FocusMinutes += s.Duration
		}
	}
	limit := AdviceTaskLimit
	if len(tasks) < limit {
		limit = len(tasks)
	}
	ctx.RecentTasks = tasks[:limit]
	return ctx
}

// Prompt renders the context block plus the user's question into the text
// sent to the generation service.
func (c AdviceContext) Prompt(query string) string {
	var b strings.Builder
	b.WriteString("User's current productivity data:\n")
	fmt.Fprintf(&b, "- Total tasks: %d\n", c.TotalTasks)
	fmt.Fprintf(&b, "- Completed tasks: %d\n", c.CompletedTasks)
	fmt.Fprintf(&b, "- Pending tasks: %d\n", c.PendingTasks)
	fmt.Fprintf(&b, "- Focus time today: %d minutes\n", c.FocusMinutes)
	if len(c.RecentTasks) > 0 {
		b.WriteString("\nRecent tasks:\n")
		for _, t := range c.RecentTasks {
			fmt.Fprintf(&b, "- %s [%s]", t.Title, t.Priority)
			if t.DueDate != nil {
				fmt.Fprintf(&b, " due %s", t.DueDate.Format("2006-01-02"))
			}
			if t.EstimatedTime != nil {
				fmt.Fprintf(&b, " (~%d min)", *t.EstimatedTime)
			}
			b.WriteByte('\n')
		}
	}
	fmt.Fprintf(&b, "\nUser's question: %s\n", query)
	b.WriteString("\nPlease provide a helpful response based on this productivity data.\n")
	return b.String()
}

// Fallback produces the canned advice string used when the external
// generation call fails. The sentence incorporates the already-computed
// counts so the response stays grounded in the caller's actual data.
func (c AdviceContext) Fallback(query string) string {
	summary := fmt.Sprintf(
		"Based on your productivity data:\n- You have %d total tasks (%d completed, %d pending)\n- You've focused for %d minutes today\n\n",
		c.TotalTasks, c.CompletedTasks, c.PendingTasks, c.FocusMinutes)

	switch {
	case c.TotalTasks == 0:
		return summary + fmt.Sprintf(
			"To help with your question %q, start by adding the tasks on your mind so we can prioritize them together.", query)
	case c.PendingTasks == 0:
		return summary + fmt.Sprintf(
			"Everything on your list is done. For your question %q, this is a good moment to plan tomorrow or take a proper break.", query)
	default:
		return summary + fmt.Sprintf(
			"To help with your question %q, I recommend focusing on your most important pending tasks first.", query)
	}
}
