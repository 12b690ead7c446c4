package buddy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoodFor(t *testing.T) {
	cases := []struct {
		streak, health int
		want           Mood
	}{
		{10, 3, MoodThriving},
		{7, 2, MoodHappy},
		{3, 3, MoodHappy},
		{1, 2, MoodOkay},
		{0, 3, MoodSad},
		{15, 0, MoodSad}, // dead garden wins over any streak
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MoodFor(c.streak, c.health), "streak=%d health=%d", c.streak, c.health)
	}
}
