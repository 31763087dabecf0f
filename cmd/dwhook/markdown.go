package main

import (
	"net/url"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var converter = md.NewConverter("", true, nil)

func init() {
	// Discord renders neither inline images nor raw img tags in content.
	removeIMGTags := md.Rule{
		Filter: []string{"img"},
		Replacement: func(_ string, _ *goquery.Selection, _ *md.Options) *string {
			return md.String("")
		},
	}
	sanitizeInvalidLinks := md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, options *md.Options) *string {
			_, err := url.ParseRequestURI(content)
			if err == nil {
				href := selec.AttrOr("href", "#")
				return md.String("[Link](" + href + ")")
			}
			return nil
		},
	}
	converter.AddRules(removeIMGTags, sanitizeInvalidLinks)
}

// htmlToMarkdown converts HTML input into Discord flavored markdown.
func htmlToMarkdown(s string) (string, error) {
	return converter.ConvertString(s)
}
