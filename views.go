/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

const (
	blogPreviewLength   = 300
	planetPreviewLength = 150
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func writePlanets(w io.Writer, planets []Exoplanet) {
	if len(planets) == 0 {
		fmt.Fprintln(w, "No exoplanets found.")
		return
	}

	table := newTable(w, "ID", "Name", "Description")
	table.AppendBulk(lo.Map(planets, func(p Exoplanet, _ int) []string {
		return []string{strconv.Itoa(p.ID), p.Name, planetPreview(p.Description)}
	}))
	table.Render()
}

func writePlanet(w io.Writer, p *Exoplanet) {
	fmt.Fprintf(w, "%s\n\n", p.Name)
	if p.Image != "" {
		fmt.Fprintf(w, "Image: %s\n\n", p.Image)
	}
	fmt.Fprintf(w, "%s\n\n", p.Story)
}

// blogPreview cuts content to its first 300 runes and always marks the cut.
func blogPreview(content string) string {
	return lo.Substring(content, 0, blogPreviewLength) + "..."
}

func planetPreview(description string) string {
	return lo.Substring(description, 0, planetPreviewLength) + "..."
}

func writeBlogs(w io.Writer, blogs []Blog) {
	if len(blogs) == 0 {
		fmt.Fprintln(w, "No blogs yet.")
		return
	}

	for _, b := range blogs {
		fmt.Fprintf(w, "%s\n%s\nBy: %s on %s\n\n", b.Title, blogPreview(b.Content), b.Author, b.CreatedAt)
	}
}
