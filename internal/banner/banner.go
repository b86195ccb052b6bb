package banner

import (
	"github.com/charmbracelet/lipgloss"

	"dynobench/internal/tui/styles"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
    ____                    ____                  __
   / __ \__  ______  ____  / __ )___  ____  _____/ /_
  / / / / / / / __ \/ __ \/ __  / _ \/ __ \/ ___/ __ \
 / /_/ / /_/ / / / / /_/ / /_/ /  __/ / / / /__/ / / /
/_____/\__, /_/ /_/\____/_____/\___/_/ /_/\___/_/ /_/
      /____/                                          `

	return "\n" + style.Render(ascii) + "\n"
}
