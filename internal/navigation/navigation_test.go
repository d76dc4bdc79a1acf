package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagePaths(t *testing.T) {
	assert.Equal(t, "/", PageHome.Path())
	assert.Equal(t, "/driver", PageDrivers.Path())
	assert.Equal(t, "/driver/register", PageRegister.Path())
	assert.Equal(t, "/", PageNone.Path())
}

func TestPageForPath(t *testing.T) {
	assert.Equal(t, PageRegister, PageForPath("/driver/register"))
	assert.Equal(t, PageNone, PageForPath("/inexistente"))
}

func TestSidebarOrder(t *testing.T) {
	items := Sidebar()
	assert.Len(t, items, 3)
	assert.Equal(t, "Dashboard", items[0].Title)
	assert.Equal(t, "Cadastre-se", items[2].Title)
	assert.Equal(t, "Nenhuma", PageNone.String())
}
