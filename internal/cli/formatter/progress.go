package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders done out of total as a bar like [████░░░░] 2/4.
// The bar is green when complete, yellow when started and red otherwise.
func RenderProgress(done, total, width int) string {
	if width < 2 {
		width = 2
	}
	if total <= 0 {
		return fmt.Sprintf("[%s] %s", StyleDim.Render(strings.Repeat(emptyBlock, width)), Dim("--"))
	}
	if done > total {
		done = total
	}
	if done < 0 {
		done = 0
	}

	filled := done * width / total
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleRed
	switch {
	case done == total:
		style = StyleGreen
	case done > 0:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %d/%d", style.Render(bar), done, total)
}
