package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the ranking table as a CSV string.
func RenderCSV(rows []ModelRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("rank,model_id,display_name,category,score,mape,rmse,r2,directional_accuracy\n")

	// Rows
	for _, m := range rows {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%d,%.6f,%.6f,%.6f,%.6f\n",
			m.Rank,
			m.ModelID,
			m.DisplayName,
			m.Category,
			m.Score,
			m.MAPE,
			m.RMSE,
			m.R2,
			m.DirectionalAccuracy,
		))
	}

	return sb.String()
}
