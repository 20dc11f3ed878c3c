package telegram

import (
	"fmt"
	"strings"

	"github.com/common-origin/meal-agent-sub001/internal/metrics"
	"github.com/common-origin/meal-agent-sub001/internal/planner"
	"github.com/common-origin/meal-agent-sub001/internal/shopping"
)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// parseDay accepts "wed", "Wednesday" or a 0-based index.
func parseDay(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 1 && s[0] >= '0' && s[0] <= '6' {
		return int(s[0] - '0'), true
	}
	if len(s) < 3 {
		return 0, false
	}
	for i, d := range weekdays {
		if strings.HasPrefix(strings.ToLower(d), s) {
			return i, true
		}
	}
	return 0, false
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escape makes text safe inside legacy Markdown messages.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func formatPlan(plan *planner.PlanWeek) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *Week of %s*\n\n", plan.WeekStart)

	for _, d := range plan.Days {
		fmt.Fprintf(&sb, "*%s*: ", d.Weekday)
		switch {
		case d.Empty():
			sb.WriteString("_nothing planned_")
		case d.Leftover():
			fmt.Fprintf(&sb, "%s (leftovers)", escape(d.Title))
		default:
			sb.WriteString(escape(d.Title))
		}
		if d.Missing {
			sb.WriteString(" ⚠️ _recipe missing_")
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\n💰 *Estimated cost:* $%.2f", plan.TotalCost)
	if len(plan.Conflicts) > 0 {
		sb.WriteString("\n\n⚠️ ")
		sb.WriteString(escape(strings.Join(plan.Conflicts, "; ")))
	}
	return sb.String()
}

func formatShoppingList(list *shopping.List) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n")

	category := ""
	var pantry []string
	for _, item := range list.Items {
		if item.PantryStaple {
			pantry = append(pantry, item.Name)
			continue
		}
		if item.Category != category {
			category = item.Category
			fmt.Fprintf(&sb, "\n*%s*\n", escape(category))
		}
		fmt.Fprintf(&sb, "• %s\n", escape(formatItem(item)))
	}
	if len(pantry) > 0 {
		fmt.Fprintf(&sb, "\n_Check the pantry:_ %s\n", escape(strings.Join(pantry, ", ")))
	}
	if list.EstimatedTotal > 0 {
		fmt.Fprintf(&sb, "\n💰 *Estimated total:* $%.2f", list.EstimatedTotal)
	}
	return sb.String()
}

func formatItem(item shopping.AggregatedIngredient) string {
	if item.Qty == 0 {
		return item.Name
	}
	if item.Unit == "" {
		return fmt.Sprintf("%g %s", item.Qty, item.Name)
	}
	return fmt.Sprintf("%g%s %s", item.Qty, item.Unit, item.Name)
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
		if d.TotalFailed > 0 {
			fmt.Fprintf(&sb, ", %d failed", d.TotalFailed)
		}
		sb.WriteString(")\n")
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}
