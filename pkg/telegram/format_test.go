package telegram

import "testing"

func TestFormatAssistantHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bold span",
			in:   "Today brings **good fortune** in work.",
			want: "Today brings <b>good fortune</b> in work.",
		},
		{
			name: "h3 header becomes bold with colon",
			in:   "### Career\nStay patient.",
			want: "<b>Career:</b>\nStay patient.",
		},
		{
			name: "h2 header keeps existing colon",
			in:   "## Finance:\nAvoid big purchases.",
			want: "<b>Finance:</b>\nAvoid big purchases.",
		},
		{
			name: "html characters escaped",
			in:   "a < b & **c > d**",
			want: "a &lt; b &amp; <b>c &gt; d</b>",
		},
		{
			name: "unpaired marker kept literal",
			in:   "broken **bold",
			want: "broken **bold",
		},
		{
			name: "empty input unchanged",
			in:   "   ",
			want: "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatAssistantHTML(tt.in)
			if got != tt.want {
				t.Errorf("FormatAssistantHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
