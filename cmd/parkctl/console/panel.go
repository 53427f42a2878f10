package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mklimuk/parkbay/parking"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Width(18)
)

// NoChange is printed for a poll that found the change flag clear.
const NoChange = "no change detected"

// RenderSnapshot formats one poll result for the terminal.
func RenderSnapshot(s parking.Snapshot) string {
	if !s.Changed || s.Status == nil {
		return PictoPause + "  " + NoChange
	}
	return RenderStatus(s.Status)
}

func RenderStatus(st *parking.Status) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(PictoChart + " PARKING BAY STATUS"))
	b.WriteString("\n\n")
	row := func(picto, label, value string) {
		b.WriteString(picto + " " + labelStyle.Render(label) + value + "\n")
	}
	row(PictoCar, "Car detected", yesNo(st.CarDetected, "YES", "NO"))
	row(PictoMoon, "Light", yesNo(st.IsDark, "DARK", "BRIGHT"))
	row(PictoServo, "Servo angle", fmt.Sprintf("%d°", st.ServoAngle))
	row(PictoBulb, "LED red", yesNo(st.LEDRed, "ON", "OFF"))
	row(PictoBulb, "LED green", yesNo(st.LEDGreen, "ON", "OFF"))
	row(PictoBulb, "LED white", yesNo(st.LEDWhite, "ON", "OFF"))
	row(PictoTimer, "Release counter", fmt.Sprintf("%d/%d", st.ReleaseCounter, parking.ReleaseCounterMax))
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func yesNo(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}
