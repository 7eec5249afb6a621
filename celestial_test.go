package trajopt

import (
	"errors"
	"testing"
)

func TestCelestialObjectFromString(t *testing.T) {
	for _, exp := range []CelestialObject{Sun, Venus, Earth, Mars, Jupiter, Saturn} {
		for _, name := range []string{exp.Name, exp.key(), " " + exp.Name + " "} {
			obj, err := CelestialObjectFromString(name)
			if err != nil {
				t.Fatalf("could not find %s: %s", name, err)
			}
			if !obj.Equals(exp) {
				t.Fatalf("got %s instead of %s", obj, exp)
			}
		}
	}
	if _, err := CelestialObjectFromString("Vesta"); !errors.Is(err, ErrUnknownBody) {
		t.Fatalf("expected ErrUnknownBody, got %v", err)
	}
}

func TestCelestialObjectsFromStrings(t *testing.T) {
	objs, err := CelestialObjectsFromStrings([]string{"sun", "earth", "jupiter"})
	if err != nil {
		t.Fatal(err)
	}
	if len(objs) != 3 || !objs[2].Equals(Jupiter) {
		t.Fatalf("unexpected objects %v", objs)
	}
	if _, err := CelestialObjectsFromStrings([]string{"earth", "pluto"}); err == nil {
		t.Fatal("pluto should not resolve")
	}
}

func TestCrashRadii(t *testing.T) {
	// The Sun keeps the widest berth, the giant planets come next and the rocky planets last.
	if Sun.CrashRadius <= Jupiter.CrashRadius || Jupiter.CrashRadius <= Earth.CrashRadius {
		t.Fatal("crash radii are not ordered by body size")
	}
	for _, obj := range []CelestialObject{Sun, Venus, Earth, Mars, Jupiter, Saturn} {
		if obj.CrashRadius < obj.Radius {
			t.Fatalf("%s crash radius is smaller than its radius", obj)
		}
		if obj.GM() <= 0 {
			t.Fatalf("%s has no gravitational parameter", obj)
		}
	}
}
