// File: internal/apps/apps_test.go
package apps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	pkg, ok := Lookup("maps")
	assert.True(t, ok)
	assert.Equal(t, "com.google.android.apps.maps", pkg)

	pkg, ok = Lookup("  Google Maps ")
	assert.True(t, ok)
	assert.Equal(t, "com.google.android.apps.maps", pkg)

	_, ok = Lookup("definitely-not-an-app")
	assert.False(t, ok)
}

func TestFriendlyName(t *testing.T) {
	assert.Equal(t, "settings", FriendlyName("com.android.settings"))
	// Unknown packages fall back to the last dotted segment.
	assert.Equal(t, "frobnicator", FriendlyName("com.example.frobnicator"))
	assert.Equal(t, "standalone", FriendlyName("standalone"))
	// Aliased packages resolve deterministically.
	assert.Equal(t, "twitter", FriendlyName("com.twitter.android"))
}

func TestNamesCoversTable(t *testing.T) {
	names := Names()
	assert.NotEmpty(t, names)
	for _, name := range names {
		_, ok := Lookup(name)
		assert.True(t, ok, "name %q must resolve", name)
	}
}
