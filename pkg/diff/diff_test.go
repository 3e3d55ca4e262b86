package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		old      string
		new      string
		inserted int
		deleted  int
		changed  bool
	}{
		{
			name:    "identical",
			old:     "Hello World",
			new:     "Hello World",
			changed: false,
		},
		{
			name:     "pure insert",
			old:      "Hello",
			new:      "Hello World",
			inserted: 6,
			changed:  true,
		},
		{
			name:    "pure delete",
			old:     "Hello World",
			new:     "Hello",
			deleted: 6,
			changed: true,
		},
		{
			name:     "replace",
			old:      "今天天气不错",
			new:      "今天下雨了",
			inserted: 3,
			deleted:  4,
			changed:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Compare(tt.old, tt.new)
			assert.Equal(t, tt.inserted, s.InsertedChars)
			assert.Equal(t, tt.deleted, s.DeletedChars)
			assert.Equal(t, tt.changed, s.Changed())
		})
	}
}
