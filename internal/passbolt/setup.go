package passbolt

import (
	"context"
	"regexp"
	"time"

	"github.com/xkilldash9x/passbolt-e2e/internal/selectors"
	"github.com/xkilldash9x/passbolt-e2e/internal/wait"
)

// Titles of the setup wizard steps.
var (
	stepPluginCheck   = regexp.MustCompile(`Plugin check`)
	stepCreateKey     = regexp.MustCompile(`(?i)Create a new key`)
	stepPassphrase    = regexp.MustCompile(`(?i)Now let's setup your passphrase!`)
	stepKeyReady      = regexp.MustCompile(`(?i)Success! Your secret key is ready\.`)
	stepSecurityToken = regexp.MustCompile(`(?i)Set a security token`)
	stepComplete      = regexp.MustCompile(`(?i)Setup is complete`)
	stepWelcomeBack   = regexp.MustCompile(`(?i)Welcome back!`)
	stepImportKey     = regexp.MustCompile(`(?i)Import an existing key or create a new one!`)
	stepKeyImported   = regexp.MustCompile(`(?i)Let's make sure you imported the right key`)
)

const (
	defaultKeyComment = "This is a comment for john doe key"
	// Key generation runs in the extension and is slow.
	keyGenerationTimeout = 20 * time.Second
)

// SetupData feeds the setup and recovery wizards.
type SetupData struct {
	MasterPassword string
	// PrivateKey is the armored key to import.
	PrivateKey string
	KeyComment string
}

// startWizard waits for the plugin check, accepts the domain and moves to the
// key step.
func (h *Harness) startWizard(ctx context.Context) error {
	if err := h.seeText(ctx, stepPluginCheck, selectors.SetupPluginCheck); err != nil {
		return err
	}
	if err := h.see(ctx, selectors.SetupDomainCheck); err != nil {
		return err
	}
	if err := h.checkSel(ctx, h.s(selectors.SetupDomainCheck)); err != nil {
		return err
	}
	return h.ClickLink(ctx, "Next")
}

// finishWizard goes through the security token step and waits for the login
// page the wizard ends on.
func (h *Harness) finishWizard(ctx context.Context) error {
	if err := h.seeText(ctx, stepSecurityToken, selectors.SetupStepContentTitle); err != nil {
		return err
	}
	if err := h.ClickLink(ctx, "Next"); err != nil {
		return err
	}
	if err := h.seeText(ctx, stepComplete, selectors.SetupStepContentTitle); err != nil {
		return err
	}
	return h.seeText(ctx, stepWelcomeBack, selectors.SetupWelcome)
}

// next clicks Next and waits for the step whose title matches re.
func (h *Harness) next(ctx context.Context, re *regexp.Regexp, title selectors.Name) error {
	if err := h.ClickLink(ctx, "Next"); err != nil {
		return err
	}
	return h.seeText(ctx, re, title)
}

// CompleteSetupWithKeyGeneration runs the setup wizard from the plugin check,
// letting the extension generate a key protected by data.MasterPassword.
func (h *Harness) CompleteSetupWithKeyGeneration(ctx context.Context, data SetupData) error {
	if err := h.startWizard(ctx); err != nil {
		return err
	}
	if err := h.seeText(ctx, stepCreateKey, selectors.SetupStepContentTitle); err != nil {
		return err
	}
	comment := data.KeyComment
	if comment == "" {
		comment = defaultKeyComment
	}
	if err := h.input(ctx, selectors.SetupKeyComment, comment); err != nil {
		return err
	}
	if err := h.next(ctx, stepPassphrase, selectors.SetupStepTitle); err != nil {
		return err
	}
	if err := h.input(ctx, selectors.SetupPassword, data.MasterPassword); err != nil {
		return err
	}
	if err := h.see(ctx, selectors.SetupSubmitEnabled); err != nil {
		return err
	}
	if err := h.ClickLink(ctx, "Next"); err != nil {
		return err
	}
	title := h.s(selectors.SetupStepTitle)
	if err := wait.TextMatches(ctx, h.Driver(), title, stepKeyReady, h.timeout(keyGenerationTimeout)...); err != nil {
		return err
	}
	if err := h.ClickLink(ctx, "Next"); err != nil {
		return err
	}
	return h.finishWizard(ctx)
}

// importKey switches the key step to import and pastes the key.
func (h *Harness) importKey(ctx context.Context, key string) error {
	if err := h.seeText(ctx, stepImportKey, selectors.SetupStepTitle); err != nil {
		return err
	}
	if err := h.input(ctx, selectors.SetupImportKeyText, key); err != nil {
		return err
	}
	if err := h.next(ctx, stepKeyImported, selectors.SetupStepTitle); err != nil {
		return err
	}
	return h.ClickLink(ctx, "Next")
}

// CompleteSetupWithKeyImport runs the setup wizard from the plugin check,
// importing data.PrivateKey.
func (h *Harness) CompleteSetupWithKeyImport(ctx context.Context, data SetupData) error {
	if err := h.startWizard(ctx); err != nil {
		return err
	}
	if err := h.seeText(ctx, stepCreateKey, selectors.SetupStepContentTitle); err != nil {
		return err
	}
	if err := h.ClickLink(ctx, "import"); err != nil {
		return err
	}
	if err := h.importKey(ctx, data.PrivateKey); err != nil {
		return err
	}
	return h.finishWizard(ctx)
}

// CompleteRecovery runs the account recovery wizard, which starts on the key
// import step once the domain is accepted.
func (h *Harness) CompleteRecovery(ctx context.Context, data SetupData) error {
	if err := h.startWizard(ctx); err != nil {
		return err
	}
	if err := h.importKey(ctx, data.PrivateKey); err != nil {
		return err
	}
	return h.finishWizard(ctx)
}

// SetupDataFor reads the key of the fixture with alias for the import
// variants of the wizard.
func (h *Harness) SetupDataFor(alias string) (SetupData, error) {
	u, err := h.fixtures.User(alias)
	if err != nil {
		return SetupData{}, err
	}
	key, err := h.readKey(u.PrivateKey)
	if err != nil {
		return SetupData{}, err
	}
	return SetupData{MasterPassword: u.MasterPassword, PrivateKey: key}, nil
}
