// internal/models/adventure_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkillsIsDefault(t *testing.T) {
	assert.True(t, CharacterSkills{Strength: 3, Agility: 3, Intelligence: 3, Charisma: 3, Luck: 3}.IsDefault())
	assert.False(t, CharacterSkills{Strength: 4, Agility: 3, Intelligence: 3, Charisma: 3, Luck: 2}.IsDefault())
	assert.False(t, CharacterSkills{}.IsDefault())
}

func TestSkillsScore(t *testing.T) {
	skills := CharacterSkills{Strength: 1, Agility: 2, Intelligence: 3, Charisma: 4, Luck: 5}

	assert.Equal(t, 1, skills.Score("strength"))
	assert.Equal(t, 2, skills.Score("agility"))
	assert.Equal(t, 3, skills.Score("intelligence"))
	assert.Equal(t, 4, skills.Score("charisma"))
	assert.Equal(t, 5, skills.Score("luck"))
	assert.Equal(t, 0, skills.Score("stealth"), "unknown skills score zero")
}
