package extract

import (
	"errors"
	"reflect"
	"testing"
)

func TestLinks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single link",
			input: "check this out https://example.com/post/1",
			want:  []string{"https://example.com/post/1"},
		},
		{
			name:  "multiple links preserve order",
			input: "a https://b.com/1 then http://a.com/2 and https://c.com/3",
			want:  []string{"https://b.com/1", "http://a.com/2", "https://c.com/3"},
		},
		{
			name:  "duplicates keep first occurrence position",
			input: "https://x.com/1 https://y.com/2 https://x.com/1",
			want:  []string{"https://x.com/1", "https://y.com/2"},
		},
		{
			name:  "links separated by fullwidth comma",
			input: "https://a.com/1，https://b.com/2",
			want:  []string{"https://a.com/1", "https://b.com/2"},
		},
		{
			name:  "links inside quotes",
			input: `see "https://a.com/1" and 'https://b.com/2'`,
			want:  []string{"https://a.com/1", "https://b.com/2"},
		},
		{
			name:  "http and https both match",
			input: "http://plain.com and https://secure.com",
			want:  []string{"http://plain.com", "https://secure.com"},
		},
		{
			name:  "surrounding prose is ignored",
			input: "新款口红测评 https://www.xiaohongshu.com/explore/abc123 超好用",
			want:  []string{"https://www.xiaohongshu.com/explore/abc123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Links(tt.input)
			if err != nil {
				t.Fatalf("Links() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Links() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLinksNoMatches(t *testing.T) {
	inputs := []string{
		"",
		"no links here at all",
		"ftp://not-a-web-link.com",
		"www.example.com missing scheme",
	}

	for _, input := range inputs {
		got, err := Links(input)
		if !errors.Is(err, ErrNoLinks) {
			t.Errorf("Links(%q) error = %v, want ErrNoLinks", input, err)
		}
		if got != nil {
			t.Errorf("Links(%q) = %v, want nil", input, got)
		}
	}
}
