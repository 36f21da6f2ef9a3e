package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/showroom/pkg/config"
	"github.com/vanderheijden86/showroom/pkg/model"
)

// firstRunSetup prompts for the catalog API endpoint when no config file
// exists yet. Skipped when stdin is not a terminal, so scripted invocations
// fail fast with the usual error instead of hanging on a prompt.
func firstRunSetup(cfg *config.Config) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}

	baseURL := cfg.API.BaseURL
	collection := cfg.UI.DefaultCollection
	save := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Catalog API base URL").
				Placeholder("https://catalog.example.com/api").
				Value(&baseURL).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("the API base URL is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Default collection").
				Options(collectionOptions()...).
				Value(&collection),
			huh.NewConfirm().
				Title(fmt.Sprintf("Save to %s?", config.ConfigPath())).
				Value(&save),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.API.BaseURL = strings.TrimSpace(baseURL)
	cfg.UI.DefaultCollection = collection

	if save {
		if err := config.Save(*cfg); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Config written to %s\n", config.ConfigPath())
	}
	return nil
}

func collectionOptions() []huh.Option[string] {
	colls := model.AllCollections()
	opts := make([]huh.Option[string], 0, len(colls))
	for _, c := range colls {
		opts = append(opts, huh.NewOption(string(c), string(c)))
	}
	return opts
}
