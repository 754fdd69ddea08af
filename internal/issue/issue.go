// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	RepositoryNotFoundId Id = iota + 1
	RepositoryNotReadableId
	ConfigLoadFailedId
	InvalidExtractorOrderId
	BudgetExceededId
	EnhancerUnavailableId
	EnhancerFailedId
	OutputExistsId
	UnknownFieldId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the message followed by a "See also" list of links.
func (i *Issue) Markdown() string {
	var b strings.Builder
	b.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		b.WriteString("\n\n## See also:\n")
		for _, link := range i.extLinks {
			b.WriteString("- <" + string(link) + ">\n")
		}
	}
	return b.String()
}

func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	repositoryNotFoundIssue = &Issue{
		id:    RepositoryNotFoundId,
		mdMsg: `
# Repository not found!

The path given to autodoc does not exist or is not a directory.

## Things you can try:
- Check the path for typos
- Run autodoc from inside the repository without a path argument:
~~~
$ cd /path/to/project
$ autodoc generate
~~~`,
	}

	repositoryNotReadableIssue = &Issue{
		id:    RepositoryNotReadableId,
		mdMsg: `
# Repository not readable!

autodoc could not list the repository root. Files it cannot read deeper in
the tree are skipped and reported, but the root itself must be readable.

## Things you can try:
- Check the directory permissions:
~~~
$ ls -ld /path/to/project
~~~
- Run autodoc as a user that can read the repository`,
	}

	configLoadFailedIssue = &Issue{
		id:    ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

There was an error loading the autodoc configuration file.

## Config file locations (first found wins):
1. The file named by --config
2. ~/.config/autodoc/config.cue (Linux)
3. ./.autodoc.cue in the current directory

## Things you can try:
- Print the file autodoc reads:
~~~
$ autodoc config path
~~~
- Replace it with the defaults:
~~~
$ autodoc config init --force
~~~
- Check AUTODOC_* environment variables for typos`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	invalidExtractorOrderIssue = &Issue{
		id:    InvalidExtractorOrderId,
		mdMsg: `
# Invalid extractor order!

The extractor list names an extractor that does not exist, or names one twice.

## Built-in extractors:
python, javascript, go, rust, java, cpp, citation, shell, security, code, generic

## Things you can try:
- Fix the ` + "`extractors`" + ` list in your config file
- Remove the list to use the default order`,
	}

	budgetExceededIssue = &Issue{
		id:    BudgetExceededId,
		mdMsg: `
# Discovery budget reached!

The repository has more files than the discovery budget allows. Metadata was
still extracted, but dependency and author lists may be incomplete and carry
lower confidence.

## Things you can try:
- Raise the budget:
~~~
$ autodoc generate --max-files 2000
~~~
- Remove the limit with ` + "`--max-files -1`" + `
- Ignore generated or vendored trees in ` + "`ignore`" + ` in your config file`,
	}

	enhancerUnavailableIssue = &Issue{
		id:    EnhancerUnavailableId,
		mdMsg: `
# Enhancement unavailable!

Text generation was requested but no API key was found for the provider.
The README was generated without it.

## Things you can try:
- Export the key for your provider:
~~~
$ export ANTHROPIC_API_KEY=...
$ export GEMINI_API_KEY=...
~~~
- Put the key in a .env file in the current directory
- Switch provider with ` + "`--provider gemini`",
		extLinks: []HttpLink{
			"https://docs.anthropic.com/en/api/getting-started",
			"https://ai.google.dev/gemini-api/docs/api-key",
		},
	}

	enhancerFailedIssue = &Issue{
		id:    EnhancerFailedId,
		mdMsg: `
# Enhancement failed!

The text generation request returned an error or an empty answer. The field
keeps its extracted value or placeholder.

## Things you can try:
- Retry with debug logging:
~~~
$ autodoc generate --enhance --log-level debug
~~~
- Check that the model name is valid for the provider`,
	}

	outputExistsIssue = &Issue{
		id:    OutputExistsId,
		mdMsg: `
# Output file exists!

autodoc does not overwrite an existing README unless asked to.

## Things you can try:
- Write somewhere else with ` + "`--out README.draft.md`" + `
- Overwrite with ` + "`--force`" + `
- Print to stdout with ` + "`--out -`",
	}

	unknownFieldIssue = &Issue{
		id:    UnknownFieldId,
		mdMsg: `
# Unknown field!

` + "`autodoc explain`" + ` takes one of the metadata field names.

## Fields:
title, language, description, license, install_method, install_command,
usage_type, entry_point, version, repository_url, authors, dependencies,
security_relevant`,
	}

	issues = map[Id]*Issue{
		repositoryNotFoundIssue.Id():    repositoryNotFoundIssue,
		repositoryNotReadableIssue.Id(): repositoryNotReadableIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		invalidExtractorOrderIssue.Id(): invalidExtractorOrderIssue,
		budgetExceededIssue.Id():        budgetExceededIssue,
		enhancerUnavailableIssue.Id():   enhancerUnavailableIssue,
		enhancerFailedIssue.Id():        enhancerFailedIssue,
		outputExistsIssue.Id():          outputExistsIssue,
		unknownFieldIssue.Id():          unknownFieldIssue,
	}
)

// Values returns every issue ordered by ID.
func Values() []*Issue {
	out := maps.Values(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
