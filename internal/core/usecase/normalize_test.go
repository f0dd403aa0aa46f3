package usecase

import "testing"

func TestNormalizeAnswer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "  paris  ", want: "Paris"},
		{in: "the  eiffel\n tower", want: "The eiffel tower"},
		{in: "I ' m here", want: "I'm here"},
		{in: "they don t know", want: "They don't know"},
		{in: "it s blue", want: "It's blue"},
		{in: "we ' ll see", want: "We'll see"},
		{in: "you've won", want: "You've won"},
		{in: "éclair", want: "Éclair"},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		if got := NormalizeAnswer(tc.in); got != tc.want {
			t.Fatalf("NormalizeAnswer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeAnswerIsIdempotent(t *testing.T) {
	for _, in := range []string{"they don t know", "I ' m  here", "NASA launched it s probe"} {
		once := NormalizeAnswer(in)
		if twice := NormalizeAnswer(once); twice != once {
			t.Fatalf("NormalizeAnswer not idempotent: %q -> %q", once, twice)
		}
	}
}

func TestNormalizeAnswerKeepsRestOfCase(t *testing.T) {
	if got := NormalizeAnswer("iPhone by Apple"); got != "IPhone by Apple" {
		t.Fatalf("NormalizeAnswer() = %q", got)
	}
	if got := capitalizeQuery("  who is she? "); got != "Who is she?" {
		t.Fatalf("capitalizeQuery() = %q", got)
	}
}
