package exitprobe

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-exitprobe/registry"
	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

// PrintCollection lists every suite and test of the registry with the flags
// and expectations they were declared with.
func PrintCollection(w io.Writer, reg *registry.Registry) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(reg.Name())
	t.AppendHeader(table.Row{"SUITE", "TEST", "FLAGS", "EXPECTED", "TIMEOUT", "TITLE"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "SUITE", AutoMerge: true},
		{Name: "TITLE", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})
	t.SetStyle(table.StyleLight)

	var total int
	for _, s := range reg.GetSuites() {
		suiteName := s.Code
		if s.IsRequirement {
			suiteName += " (requirement)"
		}
		for _, test := range s.Tests {
			t.AppendRow(table.Row{
				suiteName,
				test.Code,
				declarationFlags(test),
				test.Expect.String(),
				timeoutText(test),
				test.Title,
			})
			total++
		}
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d suites", len(reg.GetSuites())), fmt.Sprintf("%d tests", total)})
	t.Render()
	return nil
}

func declarationFlags(def *types.TestDefinition) string {
	var parts []string
	if def.IsRequirement {
		parts = append(parts, "requirement")
	} else {
		parts = append(parts, "test")
	}
	if def.IsCritical {
		parts = append(parts, "critical")
	}
	return strings.Join(parts, ",")
}

func timeoutText(def *types.TestDefinition) string {
	if def.Timeout == 0 {
		return "default"
	}
	return def.Timeout.String()
}
