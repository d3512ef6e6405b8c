package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinks(t *testing.T) {
	page := `<html><body>
<a href="/">home</a>
<a href="make-delay">relative</a>
<a href="https://example.net/about">absolute</a>
<a>no href</a>
<a href="javascript:void(0)">script</a>
<a href="#top">fragment</a>
</body></html>`

	links, err := Links(page, "http://127.0.0.1:8080/dir/page")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://127.0.0.1:8080/",
		"http://127.0.0.1:8080/dir/make-delay",
		"https://example.net/about",
		"http://127.0.0.1:8080/dir/page#top",
	}, links)
}

func TestLinks_BaseHref(t *testing.T) {
	page := `<html><head><base href="https://cdn.example.com/assets/"></head>
<body><a href="logo.png">logo</a></body></html>`

	links, err := Links(page, "http://localhost/")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/assets/logo.png"}, links)
}

func TestLinks_NoAnchors(t *testing.T) {
	links, err := Links("<p>nothing here</p>", "http://localhost/")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestLinks_InvalidPageURL(t *testing.T) {
	_, err := Links("<a href='/'>x</a>", "http://[::1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid page URL")
}

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain body",
			input:    "<html><body><pre>home page</pre></body></html>",
			expected: "home page",
		},
		{
			name:     "collapses whitespace",
			input:    "<body><h1>Title</h1>\n\n  <p>first   line</p><p>second</p></body>",
			expected: "Title first line second",
		},
		{
			name:     "skips scripts and styles",
			input:    "<html><head><title>t</title><style>p{}</style></head><body><script>var x;</script><p>visible</p><noscript>hidden</noscript></body></html>",
			expected: "visible",
		},
		{
			name:     "fragment without body tag",
			input:    "just text",
			expected: "just text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Text(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
