package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name string
		tpl  string
		args map[string]interface{}
		want string
	}{
		{
			name: "single slot",
			tpl:  "pm capture {content}",
			args: map[string]interface{}{"content": "完成项目文档"},
			want: "pm capture 完成项目文档",
		},
		{
			name: "multiple slots with typed values",
			tpl:  "pm report --days {days} --format {format}",
			args: map[string]interface{}{"days": 7, "format": "json"},
			want: "pm report --days 7 --format json",
		},
		{
			name: "repeated slot",
			tpl:  "echo {name} {name}",
			args: map[string]interface{}{"name": "x"},
			want: "echo x x",
		},
		{
			name: "absent slot renders empty",
			tpl:  "pm search {query} {scope}",
			args: map[string]interface{}{"query": "inbox"},
			want: "pm search inbox ",
		},
		{
			name: "no placeholders",
			tpl:  "pm today",
			args: map[string]interface{}{"unused": "v"},
			want: "pm today",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderTemplate(tt.tpl, tt.args))
		})
	}
}
