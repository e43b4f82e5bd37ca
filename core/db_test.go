package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDBOrdering_String(t *testing.T) {
	tests := []struct {
		name string
		ord  DBOrdering
		want string
	}{
		{name: "descending by default", ord: DBOrdering{Field: "created_at"}, want: "created_at DESC"},
		{name: "ascending", ord: DBOrdering{Field: "full_name", Ascending: true}, want: "full_name ASC"},
		{name: "qualified field", ord: DBOrdering{Field: "c.created_at"}, want: "c.created_at DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ord.String())
		})
	}
}
