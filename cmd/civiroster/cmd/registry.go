package cmd

import (
	"sort"

	"civiroster/lib/fetch"
	"civiroster/lib/roster"
	"civiroster/lib/scrapers/assnat"
	"civiroster/lib/scrapers/commons"
	"civiroster/lib/scrapers/laval"
	"civiroster/lib/scrapers/montreal"
	"civiroster/lib/scrapers/ola"
	"civiroster/lib/scrapers/ottawa"
	"civiroster/lib/scrapers/toronto"
)

type registryEntry struct {
	organization     string
	cloudflareBypass bool
	build            func(client *fetch.Client) roster.Source
}

var registry = map[string]registryEntry{
	"commons": {
		organization: "House of Commons (Federal)",
		build:        func(c *fetch.Client) roster.Source { return commons.New(c) },
	},
	"assnat": {
		organization: "Assemblée nationale du Québec",
		build:        func(c *fetch.Client) roster.Source { return assnat.New(c) },
	},
	"ola": {
		organization: "Legislative Assembly of Ontario",
		build:        func(c *fetch.Client) roster.Source { return ola.New(c) },
	},
	"montreal": {
		organization:     "Conseil municipal de Montréal",
		cloudflareBypass: true,
		build:            func(c *fetch.Client) roster.Source { return montreal.New(c) },
	},
	"laval": {
		organization:     "Conseil Municipal de Laval",
		cloudflareBypass: true,
		build:            func(c *fetch.Client) roster.Source { return laval.New(c) },
	},
	"toronto": {
		organization: "Toronto City Council",
		build:        func(c *fetch.Client) roster.Source { return toronto.New(c) },
	},
	"ottawa": {
		organization: "Ottawa City Council",
		build:        func(c *fetch.Client) roster.Source { return ottawa.New(c) },
	},
}

func sourceNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
