package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kdsmith18542/liveform/config"
	"github.com/kdsmith18542/liveform/form"
	"github.com/kdsmith18542/liveform/i18n"
	"github.com/kdsmith18542/liveform/observability"
	"github.com/kdsmith18542/liveform/product"
	"github.com/kdsmith18542/liveform/registration"
	"github.com/kdsmith18542/liveform/shell"
)

// app carries the flags, the loaded settings and the seams tests replace.
type app struct {
	configFile string
	envFile    string
	locale     string

	cfg *config.Config
	tr  *i18n.Translator

	now       func() time.Time
	sleep     func(time.Duration)
	lookupEnv func(string) (string, bool)
	newDriver func(out io.Writer) shell.PromptDriver
}

func newApp() *app {
	return &app{
		now:       time.Now,
		sleep:     time.Sleep,
		lookupEnv: os.LookupEnv,
		newDriver: shell.NewSurveyDriver,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "liveform",
		Short:         "Forms with live validation in the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSession(cmd, nil)
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Environment file with LIVEFORM_* variables")
	root.PersistentFlags().StringVar(&a.locale, "locale", "", "Message locale (en, zh); detected from LANG when empty")

	root.AddCommand(
		&cobra.Command{
			Use:   "register",
			Short: "Fill in the registration form",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runSession(cmd, a.registrationPage())
			},
		},
		&cobra.Command{
			Use:   "product",
			Short: "Fill in the product form",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runSession(cmd, a.productPage())
			},
		},
		validateCmd(a),
		schemaCmd(),
		i18nCmd(),
	)
	return root
}

// setup loads the configuration and wires logging, telemetry and messages.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile, a.envFile)
	if err != nil {
		return err
	}
	if a.locale != "" {
		cfg.Locale = a.locale
	}
	a.cfg = cfg

	observability.ConfigureLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err := observability.Init(cfg.Observability); err != nil {
		return err
	}
	form.EnableObservability()
	i18n.EnableObservability()

	manager, err := i18n.NewDefaultManager()
	if err != nil {
		return fmt.Errorf("failed to load embedded locales: %w", err)
	}
	if cfg.LocalesDir != "" {
		if err := manager.LoadDir(cfg.LocalesDir); err != nil {
			return fmt.Errorf("failed to load locales from %s: %w", cfg.LocalesDir, err)
		}
		if cfg.WatchLocales {
			if err := manager.WatchLocales(cmd.Context(), cfg.LocalesDir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", cfg.LocalesDir, err)
			}
		}
	}

	locale := cfg.Locale
	if locale == "" {
		locale = manager.DetectLocale(a.lookupEnv)
	}
	a.tr = manager.Translator(locale)

	log := observability.Logger()
	log.Debug().
		Str("locale", a.tr.Locale()).
		Str("config", a.configFile).
		Msg("liveform configured")
	return nil
}

func (a *app) registrationPage() *shell.Page {
	return shell.RegistrationPage(registration.New(
		registration.WithClock(a.now),
		registration.WithTranslator(a.tr),
	))
}

func (a *app) productPage() *shell.Page {
	return shell.ProductPage(product.New(
		product.WithClock(a.now),
		product.WithTranslator(a.tr),
		product.WithSaveDelay(a.cfg.SubmitDelay),
		product.WithSleep(a.sleep),
	))
}

// runSession runs one page, or the menu over both forms when page is nil.
// An interrupted prompt ends the session without an error.
func (a *app) runSession(cmd *cobra.Command, page *shell.Page) error {
	driver := a.newDriver(cmd.OutOrStdout())
	var err error
	if page != nil {
		err = shell.NewSession(driver, a.tr, []*shell.Page{page}, shell.WithSanitizers(a.cfg.Sanitize)).
			RunPage(cmd.Context(), page)
	} else {
		pages := []*shell.Page{a.registrationPage(), a.productPage()}
		err = shell.NewSession(driver, a.tr, pages, shell.WithSanitizers(a.cfg.Sanitize)).
			Run(cmd.Context())
	}
	if errors.Is(err, shell.ErrAborted) {
		return nil
	}
	return err
}
