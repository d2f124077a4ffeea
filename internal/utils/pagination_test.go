package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPagination(t *testing.T) {
	app := fiber.New()

	var got Pagination
	app.Get("/", func(c *fiber.Ctx) error {
		got = GetPagination(c, 1, 20)
		return c.SendStatus(fiber.StatusOK)
	})

	cases := []struct {
		name  string
		query string
		want  Pagination
	}{
		{"defaults", "", Pagination{Page: 1, Limit: 20, Offset: 0}},
		{"second page", "?page=3&limit=10", Pagination{Page: 3, Limit: 10, Offset: 20}},
		{"invalid values fall back", "?page=zero&limit=-5", Pagination{Page: 1, Limit: 20, Offset: 0}},
		{"limit is capped", "?limit=5000", Pagination{Page: 1, Limit: maxPageLimit, Offset: 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", "/"+tc.query, nil))
			require.NoError(t, err)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPaginationSetTotal(t *testing.T) {
	p := Pagination{Page: 1, Limit: 20}
	p.SetTotal(41)
	assert.EqualValues(t, 41, p.Total)
	assert.Equal(t, 3, p.LastPage)

	p.SetTotal(0)
	assert.Equal(t, 0, p.LastPage)
}
