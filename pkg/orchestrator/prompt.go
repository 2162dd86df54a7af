package orchestrator

import (
	"fmt"
	"strings"
)

const systemPrompt = `You build fund reports by calling tools. You never write the report as plain text.

Work in this order:
1. Call analyze_fund to read the fund's statistics.
2. Call list_available_charts and pick only charts from that list.
3. For each chart you want, call generate_chart before any section that refers to it.
4. Call add_section for each section, in the order they should appear. Use chart_ref only for charts you already generated.
5. Optionally call list_themes and set_theme to choose the branding.
6. Call finalize_report exactly once, with a title, after at least one section exists.

If a tool returns an error, read its code and message, fix the call and try again. Do not repeat a call that already succeeded.`

const nudgeMessage = "Continue building the report with tool calls. Call finalize_report when the report is complete."

func instructionMessage(fundID, instruction, themeID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Fund: %s\n\n", fundID)
	if strings.TrimSpace(instruction) == "" {
		instruction = "Build a concise report covering performance and risk."
	}
	fmt.Fprintf(&b, "Instruction: %s\n", instruction)
	if themeID != "" {
		fmt.Fprintf(&b, "\nThe client's theme is %q and is already selected.\n", themeID)
	}
	return b.String()
}
