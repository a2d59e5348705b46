package form

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettable struct {
	fields []string
	set    []string
}

func (f *fakeSettable) Fields() []string { return f.fields }

func (f *fakeSettable) SetField(name, value string) error {
	if name == "stock" {
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("%s: %w", name, ErrInvalidInput)
		}
	}
	f.set = append(f.set, name+"="+value)
	return nil
}

func TestDecodeDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want map[string]string
	}{
		{
			name: "yaml scalars",
			doc:  "name: Lamp\nprice: 19.99\nstock: 3\nactive: true\nreleased: 2024-01-02\n",
			want: map[string]string{"name": "Lamp", "price": "19.99", "stock": "3", "active": "true", "released": "2024-01-02"},
		},
		{
			name: "json document",
			doc:  `{"email":"a@b.com","acceptTerms":false}`,
			want: map[string]string{"email": "a@b.com", "acceptTerms": "false"},
		},
		{
			name: "empty",
			doc:  "",
			want: map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDocument(strings.NewReader(tt.doc))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeDocument mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeDocument_Malformed(t *testing.T) {
	_, err := DecodeDocument(strings.NewReader("name: [unterminated"))
	assert.Error(t, err)
}

func TestApply_FieldOrderSanitizersAndProblems(t *testing.T) {
	target := &fakeSettable{fields: []string{"name", "stock", "notes"}}
	values := map[string]string{
		"notes": "<b>hi</b>",
		"name":  "  Lamp ",
		"stock": "many",
		"color": "red",
	}

	problems := Apply(target, values, map[string]string{"name": "trim", "notes": "strip_html"})

	assert.Equal(t, []string{"name=Lamp", "notes=hi"}, target.set)
	require.Len(t, problems["stock"], 1)
	assert.Contains(t, problems["stock"][0], ErrInvalidInput.Error())
	require.Len(t, problems[KeyDocument], 1)
	assert.Contains(t, problems[KeyDocument][0], `"color"`)
}
