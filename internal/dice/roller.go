// internal/dice/roller.go
package dice

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/Corphon/VisageForge/internal/models"
)

// CheckResult records one resolved skill check: the raw dice, the skill
// value added, and the outcome against the difficulty class.
type CheckResult struct {
	Skill      string `json:"skill"`
	DC         int    `json:"dc"`
	Dice       []int  `json:"dice"`
	SkillValue int    `json:"skillValue"`
	Total      int    `json:"total"`
	Success    bool   `json:"success"`
}

// Summary renders the result for the narrative instruction, e.g.
// "Agility check vs DC 12: rolled 3+5 +4 skill = 12 - SUCCESS".
func (r CheckResult) Summary() string {
	rolls := make([]string, len(r.Dice))
	for i, d := range r.Dice {
		rolls[i] = strconv.Itoa(d)
	}
	outcome := "FAILURE"
	if r.Success {
		outcome = "SUCCESS"
	}
	return fmt.Sprintf("%s check vs DC %d: rolled %s +%d skill = %d - %s",
		capitalize(r.Skill), r.DC, strings.Join(rolls, "+"), r.SkillValue, r.Total, outcome)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Roller resolves skill checks with real dice instead of trusting a
// language model to do arithmetic.
type Roller struct{}

func NewRoller() *Roller {
	return &Roller{}
}

// ResolveCheck rolls 2d6, adds the character's value for the checked
// skill and compares the total against the DC. Ties succeed.
func (ro *Roller) ResolveCheck(skills models.CharacterSkills, check models.SkillCheck) (*CheckResult, error) {
	roll, err := dice.NewRoll(2, 6)
	if err != nil {
		return nil, fmt.Errorf("failed to roll dice: %w", err)
	}

	rolled := roll.GetValue()
	skillValue := skills.Score(check.Skill)
	total := rolled + skillValue

	return &CheckResult{
		Skill:      check.Skill,
		DC:         check.DC,
		Dice:       individualDice(roll.GetDescription(), rolled),
		SkillValue: skillValue,
		Total:      total,
		Success:    total >= check.DC,
	}, nil
}

// individualDice extracts the per-die values from a roll description of
// the form "+2d6[3,4]=7". Falls back to the bare total when the
// description cannot be parsed.
func individualDice(description string, total int) []int {
	start := strings.Index(description, "[")
	end := strings.Index(description, "]")
	if start < 0 || end <= start {
		return []int{total}
	}

	var values []int
	for _, part := range strings.Split(description[start+1:end], ",") {
		if v, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return []int{total}
	}
	return values
}
