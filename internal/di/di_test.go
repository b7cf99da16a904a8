package di

import "testing"

type greeter struct{ name string }

func TestRegisterToken_LazySingleton(t *testing.T) {
	c := NewContainer()
	tok := NewToken[*greeter]("test:greeter")

	builds := 0
	RegisterToken(c, tok, func(sr ServiceRegistry) *greeter {
		builds++
		return &greeter{name: sr.Get("name").(string)}
	})
	c.Register("name", "world")

	if builds != 0 {
		t.Fatalf("factory ran before first Get")
	}

	a := GetToken(c, tok)
	b := GetToken(c, tok)
	if a != b {
		t.Errorf("GetToken returned different instances")
	}
	if builds != 1 {
		t.Errorf("builds = %d, want 1", builds)
	}
	if a.name != "world" {
		t.Errorf("name = %q, want world", a.name)
	}
}

func TestGet_Missing(t *testing.T) {
	c := NewContainer()
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for missing service")
		}
	}()
	c.Get("nope")
}

func TestGet_Cycle(t *testing.T) {
	c := NewContainer()
	c.RegisterFactory("a", func(sr ServiceRegistry) any { return sr.Get("b") })
	c.RegisterFactory("b", func(sr ServiceRegistry) any { return sr.Get("a") })

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for dependency cycle")
		}
	}()
	c.Get("a")
}

type sayer interface{ Say() string }

func TestGetToken_NilInterface(t *testing.T) {
	c := NewContainer()
	tok := NewToken[sayer]("test:sayer")
	RegisterToken(c, tok, func(ServiceRegistry) sayer { return nil })

	if got := GetToken(c, tok); got != nil {
		t.Errorf("GetToken() = %v, want nil", got)
	}
}
