package code_parser

import (
	"testing"

	"github.com/openlovable/lovable/code_parser/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmptyInput(t *testing.T) {
	parser := NewCodeParser()

	for _, raw := range []string{"", "   ", "\n\t \n"} {
		artifact, err := parser.Parse(raw)
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.Nil(t, artifact)
	}
}

func TestParse_NoTagsYieldsEmptyArtifact(t *testing.T) {
	artifact, err := NewCodeParser().Parse("Sure, here is some prose without any blocks.")
	require.NoError(t, err)

	assert.Empty(t, artifact.Files)
	assert.Empty(t, artifact.Packages)
	assert.Empty(t, artifact.Commands)
	assert.Nil(t, artifact.Explanation)
	assert.Nil(t, artifact.Structure)
}

func TestParse_FilesInSourceOrderVerbatim(t *testing.T) {
	raw := `Intro text
<file path=" index.html ">
<!doctype html>

<div id="root"></div>
</file>
<file path="src/main.tsx">import App from './App'
</file>
<file path="src/App.tsx">export default function App() { return <h1>Hi</h1> }</file>`

	artifact, err := NewCodeParser().Parse(raw)
	require.NoError(t, err)

	require.Len(t, artifact.Files, 3)
	assert.Equal(t, models.GeneratedFile{Path: "index.html", Content: "\n<!doctype html>\n\n<div id=\"root\"></div>\n"}, artifact.Files[0])
	assert.Equal(t, "src/main.tsx", artifact.Files[1].Path)
	assert.Equal(t, "import App from './App'\n", artifact.Files[1].Content)
	assert.Equal(t, "src/App.tsx", artifact.Files[2].Path)
	assert.Equal(t, "export default function App() { return <h1>Hi</h1> }", artifact.Files[2].Content)
}

func TestParse_DuplicatePathsAreKept(t *testing.T) {
	raw := `<file path="a.ts">one</file><file path="a.ts">two</file>`

	artifact, err := NewCodeParser().Parse(raw)
	require.NoError(t, err)

	require.Len(t, artifact.Files, 2)
	assert.Equal(t, "one", artifact.Files[0].Content)
	assert.Equal(t, "two", artifact.Files[1].Content)
}

func TestParse_PackagesUnionSortedDeduplicated(t *testing.T) {
	raw := "<package>react</package><packages>react\nreact-dom</packages>"

	artifact, err := NewCodeParser().Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"react", "react-dom"}, artifact.Packages)
}

func TestParse_PackagesBlockSplitsOnCommasAndNewlines(t *testing.T) {
	raw := `<packages>
  zustand, clsx

  ,framer-motion
</packages>
<package>  </package>
<packages>axios</packages>`

	artifact, err := NewCodeParser().Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"axios", "clsx", "framer-motion", "zustand"}, artifact.Packages)
}

func TestParse_CommandsExplanationStructure(t *testing.T) {
	raw := `<command> npm run build </command>
<command>npm run lint</command>
<explanation>
  Added a counter.
</explanation>
<explanation>ignored second block</explanation>
<structure>src/
  App.tsx</structure>`

	artifact, err := NewCodeParser().Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"npm run build", "npm run lint"}, artifact.Commands)
	require.NotNil(t, artifact.Explanation)
	assert.Equal(t, "Added a counter.", *artifact.Explanation)
	require.NotNil(t, artifact.Structure)
	assert.Equal(t, "src/\n  App.tsx", *artifact.Structure)
}

func TestParse_MalformedTagsAreIgnored(t *testing.T) {
	raw := `<file path="ok.ts">fine</file>
<file path=unquoted.ts>no quotes</file>
<package>react
<explanation>kept</explanation>
<file path="broken.ts">never closed`

	artifact, err := NewCodeParser().Parse(raw)
	require.NoError(t, err)

	require.Len(t, artifact.Files, 1)
	assert.Equal(t, "ok.ts", artifact.Files[0].Path)
	assert.Empty(t, artifact.Packages)
	require.NotNil(t, artifact.Explanation)
	assert.Equal(t, "kept", *artifact.Explanation)
}

func TestParse_TagsInsideFileBodiesAreNotExtracted(t *testing.T) {
	raw := `<file path="README.md">Use <package>left-pad</package> then <command>npm test</command>.</file><package>react</package>`

	artifact, err := NewCodeParser().Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"react"}, artifact.Packages)
	assert.Empty(t, artifact.Commands)
	assert.Contains(t, artifact.Files[0].Content, "<package>left-pad</package>")
}

func TestParse_BlankCommandBlocksAreDropped(t *testing.T) {
	raw := "<command></command><command>  \n </command><command>npm run dev</command>"

	artifact, err := NewCodeParser().Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"npm run dev"}, artifact.Commands)
}
