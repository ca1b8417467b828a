package models

import "testing"

func TestNotificationDataAccessors(t *testing.T) {
	n := &Notification{Data: EncodeData(map[string]interface{}{
		"scope":         "dm",
		"other_user_id": 42,
	})}
	if got := n.DataString("scope"); got != "dm" {
		t.Errorf("DataString = %q, want dm", got)
	}
	if got := n.DataUint("other_user_id"); got != 42 {
		t.Errorf("DataUint = %d, want 42", got)
	}
	if got := n.DataUint("missing"); got != 0 {
		t.Errorf("missing key = %d, want 0", got)
	}
}

func TestNotificationDataMalformed(t *testing.T) {
	n := &Notification{ID: 1, Data: "{not json"}
	if got := len(n.DataMap()); got != 0 {
		t.Errorf("malformed data gave %d entries, want empty map", got)
	}
	if got := n.DataUint("other_user_id"); got != 0 {
		t.Errorf("DataUint on malformed = %d, want 0", got)
	}
	empty := &Notification{}
	if empty.DataMap() == nil {
		t.Error("empty payload should decode to a usable map")
	}
}
