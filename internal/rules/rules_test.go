package rules

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewkit/internal/review"
	"reviewkit/internal/syntax"
)

func parseFile(t *testing.T, path, src string) *File {
	t.Helper()
	f := NewFile(path, src)
	tree, err := syntax.ParsePython(context.Background(), []byte(src))
	require.NoError(t, err)
	f.Tree = tree
	return f
}

func firstFunction(t *testing.T, src string) *syntax.Node {
	t.Helper()
	fns := syntax.Collect(parseFile(t, "f.py", src).Tree, syntax.KindFunction)
	require.NotEmpty(t, fns)
	return fns[0]
}

func TestComplexity_CountsBranches(t *testing.T) {
	for n := 0; n <= 12; n++ {
		t.Run(fmt.Sprintf("%d branches", n), func(t *testing.T) {
			var b strings.Builder
			b.WriteString("def f(x):\n")
			kinds := []string{"if x:\n        pass\n", "while x:\n        break\n", "for i in x:\n        pass\n"}
			for i := 0; i < n; i++ {
				b.WriteString("    " + kinds[i%3])
			}
			b.WriteString("    return x\n")

			assert.Equal(t, n+1, Complexity(firstFunction(t, b.String())))
		})
	}
}

func TestComplexity_Expressions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"and chain", "return a and b and c", 3},
		{"nested and", "return a and (b and c)", 3},
		{"or chain", "return a or b or c", 1},
		{"mixed", "return a and b or c and d", 3},
		{"ternary", "return a if b else c", 1},
		{"comprehension", "return [x for x in a if x]", 1},
		{"if with and", "if a and b:\n        pass", 3},
		{"elif", "if a:\n        pass\n    elif b:\n        pass\n    else:\n        pass", 3},
		{"try except", "try:\n        pass\n    except ValueError:\n        pass", 1},
		{"parenthesized and", "return (a and b)", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "def f(a, b, c, d):\n    " + tt.body + "\n"
			assert.Equal(t, tt.want, Complexity(firstFunction(t, src)))
		})
	}
}

func TestComplexity_IncludesNestedFunctions(t *testing.T) {
	src := "def outer(x):\n    def inner(y):\n        if y:\n            pass\n    if x:\n        pass\n"
	assert.Equal(t, 3, Complexity(firstFunction(t, src)))
}

func TestComplexity_AsyncForIsNotCounted(t *testing.T) {
	src := "async def f(xs):\n    async for x in xs:\n        pass\n    for y in xs:\n        pass\n"
	assert.Equal(t, 2, Complexity(firstFunction(t, src)))
}

func TestCheckComplexity(t *testing.T) {
	var b strings.Builder
	b.WriteString("def calm(x):\n    return x\n\n\ndef busy(x):\n")
	for i := 0; i < 10; i++ {
		b.WriteString("    if x:\n        pass\n")
	}

	issues := CheckComplexity(parseFile(t, "busy.py", b.String()))
	require.Len(t, issues, 1)
	assert.Equal(t, review.Issue{
		File:     "busy.py",
		Line:     5,
		Category: review.CategoryMaintainability,
		Severity: review.SeverityMedium,
		Message:  "Function 'busy' has high cyclomatic complexity (11)",
	}, issues[0])
}

func TestCheckComplexity_AtThreshold(t *testing.T) {
	var b strings.Builder
	b.WriteString("def edge(x):\n")
	for i := 0; i < 9; i++ {
		b.WriteString("    if x:\n        pass\n")
	}
	assert.Empty(t, CheckComplexity(parseFile(t, "edge.py", b.String())))
}

func TestCheckDocstrings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "missing module docstring",
			src:  "x = 1\n",
			want: []string{"1:Missing docstring for module"},
		},
		{
			name: "empty module",
			src:  "",
			want: []string{"1:Missing docstring for module"},
		},
		{
			name: "comment before docstring",
			src:  "# header\n\"\"\"Doc.\"\"\"\n",
			want: nil,
		},
		{
			name: "function without docstring",
			src:  "\"\"\"Doc.\"\"\"\n\ndef run():\n    return 1\n",
			want: []string{"3:Missing docstring for function 'run'"},
		},
		{
			name: "private and dunder functions exempt",
			src:  "\"\"\"Doc.\"\"\"\n\ndef _helper():\n    pass\n\ndef __call__():\n    pass\n",
			want: nil,
		},
		{
			name: "f-string is not a docstring",
			src:  "\"\"\"Doc.\"\"\"\n\ndef run():\n    f\"doc {x}\"\n",
			want: []string{"3:Missing docstring for function 'run'"},
		},
		{
			name: "docstring after statement does not count",
			src:  "\"\"\"Doc.\"\"\"\n\nclass A:\n    x = 1\n    \"\"\"Late.\"\"\"\n",
			want: []string{"3:Missing docstring for class 'A'"},
		},
		{
			name: "parenthesized docstrings",
			src:  "(\"\"\"Doc.\"\"\")\n\nclass A:\n    ('Doc.')\n",
			want: nil,
		},
		{
			name: "async function",
			src:  "\"\"\"Doc.\"\"\"\n\nasync def fetch():\n    pass\n",
			want: []string{"3:Missing docstring for function 'fetch'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, issue := range CheckDocstrings(parseFile(t, "m.py", tt.src)) {
				assert.Equal(t, review.CategoryDocumentation, issue.Category)
				assert.Equal(t, review.SeverityMedium, issue.Severity)
				got = append(got, fmt.Sprintf("%d:%s", issue.Line, issue.Message))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckNaming(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg []string
	}{
		{"camel class", "class HttpClient2:\n    pass\n", nil},
		{"snake class", "class http_client:\n    pass\n", []string{"Class 'http_client' doesn't follow CamelCase naming convention"}},
		{"snake function", "def load_all2():\n    pass\n", nil},
		{"camel function", "def loadAll():\n    pass\n", []string{"Function 'loadAll' doesn't follow snake_case naming convention"}},
		{"single underscore function", "def _Load():\n    pass\n", []string{"Function '_Load' doesn't follow snake_case naming convention"}},
		{"dunder function", "def __Weird__():\n    pass\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, issue := range CheckNaming(parseFile(t, "n.py", tt.src)) {
				assert.Equal(t, review.CategoryStyle, issue.Category)
				assert.Equal(t, review.SeverityLow, issue.Severity)
				assert.Equal(t, 1, issue.Line)
				got = append(got, issue.Message)
			}
			assert.Equal(t, tt.wantMsg, got)
		})
	}
}

func TestStructuralRulesWithoutTree(t *testing.T) {
	f := NewFile("a.py", "def X(): pass\n")
	assert.Nil(t, CheckDocstrings(f))
	assert.Nil(t, CheckNaming(f))
	assert.Nil(t, CheckComplexity(f))
}

func TestCheckDebugStatements(t *testing.T) {
	src := "console.log('a');\nconsole.debug ('b');\nmyconsole.log(1);\nconsole.info(2);\n  console.trace();\n"
	issues := CheckDebugStatements(NewFile("a.js", src))

	require.Len(t, issues, 3)
	assert.Equal(t, []int{1, 2, 5}, lines(issues))
	assert.Equal(t, "console.log statement should be removed in production code", issues[0].Message)
	assert.Equal(t, "console.debug statement should be removed in production code", issues[1].Message)
	assert.Equal(t, review.CategoryDebug, issues[0].Category)
	assert.Equal(t, review.SeverityLow, issues[0].Severity)
}

func TestCheckLineLength(t *testing.T) {
	src := strings.Repeat("a", 100) + "\n" +
		strings.Repeat("b", 101) + "\n" +
		strings.Repeat("c", 100) + "\r\n" +
		strings.Repeat("é", 101) + "\n"
	issues := CheckLineLength(NewFile("a.txt", src))

	require.Len(t, issues, 2)
	assert.Equal(t, []int{2, 4}, lines(issues))
	assert.Equal(t, "Line exceeds 100 characters (length: 101)", issues[0].Message)
	assert.Equal(t, "Line exceeds 100 characters (length: 101)", issues[1].Message)
}

func TestCheckTrailingWhitespace(t *testing.T) {
	src := "a \nb\n\t\n\nc\r\nd\u00a0\n"
	issues := CheckTrailingWhitespace(NewFile("a.txt", src))

	assert.Equal(t, []int{1, 3, 6}, lines(issues))
	for _, issue := range issues {
		assert.Equal(t, "Line has trailing whitespace", issue.Message)
		assert.Equal(t, review.CategoryStyle, issue.Category)
	}
}
