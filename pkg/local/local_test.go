package local

import "testing"

func TestTextSet(t *testing.T) {
	set := NewSet("Hello", NewTrans(Rus, "Привет"))

	if got := set.Text(Rus); got != "Привет" {
		t.Errorf("Text(Rus) = %q, want %q", got, "Привет")
	}
	if got := set.Text(Eng); got != "Hello" {
		t.Errorf("Text(Eng) = %q, want default %q", got, "Hello")
	}
}

func TestTextSet_Format(t *testing.T) {
	set := NewSet("Chat %d", NewTrans(Rus, "Чат %d"))

	if got := set.Format(Rus, 3); got != "Чат 3" {
		t.Errorf("Format(Rus, 3) = %q, want %q", got, "Чат 3")
	}
	if got := set.Format(Eng, 3); got != "Chat 3" {
		t.Errorf("Format(Eng, 3) = %q, want %q", got, "Chat 3")
	}
}

func TestParseLanguage(t *testing.T) {
	if got := ParseLanguage("ru"); got != Rus {
		t.Errorf("ParseLanguage(ru) = %q, want %q", got, Rus)
	}
	if got := ParseLanguage("anything-else"); got != Eng {
		t.Errorf("ParseLanguage fallback = %q, want %q", got, Eng)
	}
}
