package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Model Comparison Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Run summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Dataset | %s |\n", r.DatasetName))
	sb.WriteString(fmt.Sprintf("| Target Column | %s |\n", r.TargetField))
	sb.WriteString(fmt.Sprintf("| Rows | %d |\n", r.RowCount))
	sb.WriteString(fmt.Sprintf("| Horizon (days) | %d |\n", r.Horizon))
	sb.WriteString(fmt.Sprintf("| Backtest Window | %d |\n", r.BacktestWindow))
	sb.WriteString("\n")

	// Ranking
	sb.WriteString("## Model Ranking\n\n")
	if len(r.Rows) > 0 {
		sb.WriteString("| Rank | Model | Category | Score | MAPE | RMSE | R2 | Direction% |\n")
		sb.WriteString("|------|-------|----------|-------|------|------|----|------------|\n")
		for _, m := range r.Rows {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %.2f | %.2f | %.4f | %.1f |\n",
				m.Rank, m.DisplayName, m.Category, m.Score,
				m.MAPE, m.RMSE, m.R2, m.DirectionalAccuracy))
		}
		sb.WriteString("\n")

		if best, ok := r.Best(); ok {
			sb.WriteString(fmt.Sprintf("**Best model: %s (score %d).**\n", best.DisplayName, best.Score))
		}
	} else {
		sb.WriteString("No models evaluated.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
