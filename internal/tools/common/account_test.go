package common

import "testing"

func TestGetAccountFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing", map[string]interface{}{}, "default"},
		{"nil args", nil, "default"},
		{"empty string", map[string]interface{}{"account": ""}, "default"},
		{"wrong type", map[string]interface{}{"account": 7}, "default"},
		{"named account", map[string]interface{}{"account": "work"}, "work"},
		{"among other args", map[string]interface{}{"account": "personal", "query": "is:unread"}, "personal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetAccountFromArgs(tt.args); got != tt.want {
				t.Errorf("GetAccountFromArgs(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
