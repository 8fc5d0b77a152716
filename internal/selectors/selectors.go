// Package selectors centralizes the DOM hooks the harness relies on. Every hook
// is looked up by a semantic name so a markup change is fixed in one place.
package selectors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
)

// ErrUnknownSelector is returned for names missing from the registry.
var ErrUnknownSelector = errors.New("unknown selector")

// Name identifies a DOM hook. Patterns may hold %s verbs filled by Get's args.
type Name string

// Page and plugin state.
const (
	Body               Name = "page.body"
	AppRoot            Name = "page.app"
	Container          Name = "page.container"
	Head               Name = "page.head"
	PageLoaded         Name = "page.loaded"
	Logout             Name = "page.logout"
	Role               Name = "page.role"
	PluginPresent      Name = "plugin.present"
	PluginAbsent       Name = "plugin.absent"
	PluginReady        Name = "plugin.ready"
	PluginConfigured   Name = "plugin.configured"
	PluginUnconfigured Name = "plugin.unconfigured"
	Link               Name = "page.link"
	Notification       Name = "page.notification"
	Breadcrumb         Name = "page.breadcrumb"
	FilterRow          Name = "page.filter_row"
	ToggleButton       Name = "page.toggle_button"
	ClipboardArea      Name = "page.clipboard_area"
)

// Login.
const (
	LoginForm          Name = "login.form"
	LoginIframeReady   Name = "login.iframe_ready"
	LoginPluginCheck   Name = "login.plugin_check"
	LoginGPGCheck      Name = "login.gpg_check"
	LoginUsername      Name = "login.username"
	LoginSubmit        Name = "login.submit"
	MasterPasswordPage Name = "login.master_password_page"
)

// Extension debug page.
const (
	DebugReady             Name = "debug.ready"
	DebugSettings          Name = "debug.settings"
	DebugDataSet           Name = "debug.data_set"
	DebugSaveConfig        Name = "debug.save_config"
	DebugConfigFeedback    Name = "debug.config_feedback"
	DebugSaveKey           Name = "debug.save_key"
	DebugKeyFeedback       Name = "debug.key_feedback"
	DebugSaveServerKey     Name = "debug.save_server_key"
	DebugServerKeyFeedback Name = "debug.server_key_feedback"
	DebugInitPagemod       Name = "debug.init_pagemod"
	DebugToolbarIcon       Name = "debug.toolbar_icon"
	DebugLogs              Name = "debug.logs"
)

// Workspaces.
const (
	ProfileDropdown  Name = "workspace.profile_dropdown"
	SettingsPage     Name = "workspace.settings_page"
	WorkspaceLink    Name = "workspace.link"
	PasswordPage     Name = "workspace.password_page"
	PeoplePage       Name = "workspace.people_page"
	CreateButton     Name = "workspace.create_button"
	CreateMenu       Name = "workspace.create_menu"
	CreateUserItem   Name = "workspace.create_user_item"
	CreateGroupItem  Name = "workspace.create_group_item"
	ContextMenu      Name = "workspace.context_menu"
	ContextMenuReady Name = "workspace.context_menu_ready"
)

// Setup and recovery.
const (
	SetupPluginCheck        Name = "setup.plugin_check"
	SetupPluginCheckSuccess Name = "setup.plugin_check_success"
	SetupDomainCheck        Name = "setup.domain_check"
	SetupStepContentTitle   Name = "setup.step_content_title"
	SetupStepTitle          Name = "setup.step_title"
	SetupKeyComment         Name = "setup.key_comment"
	SetupPassword           Name = "setup.password"
	SetupSubmitEnabled      Name = "setup.submit_enabled"
	SetupImportKeyText      Name = "setup.import_key_text"
	SetupWelcome            Name = "setup.welcome"
)

// Passwords.
const (
	PasswordRow          Name = "password.row"
	PasswordRowName      Name = "password.row_name"
	PasswordTableRow     Name = "password.table_row"
	CreatePasswordDialog Name = "password.create_dialog"
	CreatePasswordSubmit Name = "password.create_submit"
	EditPasswordDialog   Name = "password.edit_dialog"
	EditPasswordSubmit   Name = "password.edit_submit"
	EditButton           Name = "password.edit_button"
	ShareButton          Name = "password.share_button"
	DeleteButton         Name = "password.delete_button"
	SecretEditReady      Name = "password.secret_edit_ready"
	ProgressDialog       Name = "password.progress_dialog"
	FieldName            Name = "password.field_name"
	FieldUsername        Name = "password.field_username"
	FieldURI             Name = "password.field_uri"
	FieldDescription     Name = "password.field_description"
	Secret               Name = "password.secret"
	SecretDecrypting     Name = "password.secret_decrypting"
	SecretStrength       Name = "password.strength"
	StrengthBar          Name = "password.strength_bar"
	StrengthBarLevel     Name = "password.strength_bar_level"
	ComplexityText       Name = "password.complexity_text"
)

// Sharing.
const (
	SharePermissionForm     Name = "share.permission_form"
	ShareDialogReady        Name = "share.dialog_ready"
	ShareDialog             Name = "share.dialog"
	ShareAroInput           Name = "share.aro_input"
	SecurityToken           Name = "share.security_token"
	ShareAutocompleteLoaded Name = "share.autocomplete_loaded"
	AutocompleteContent     Name = "share.autocomplete_content"
	AutocompleteItem        Name = "share.autocomplete_item"
	ShareChanges            Name = "share.changes"
	PermissionsList         Name = "share.permissions_list"
	PermissionRow           Name = "share.permission_row"
	RowLabel                Name = "share.row_label"
	PermissionTypeSelect    Name = "share.permission_type"
	PermissionDelete        Name = "share.permission_delete"
	PermissionTypeByID      Name = "share.permission_type_by_id"
	PermissionDeleteByID    Name = "share.permission_delete_by_id"
	ShareSave               Name = "share.save"
	DialogClose             Name = "share.dialog_close"
	SidebarPermissionsReady Name = "share.sidebar_ready"
	SidebarPermissionRow    Name = "share.sidebar_row"
	Subinfo                 Name = "share.subinfo"
)

// Master password dialog.
const (
	MasterPasswordIframe      Name = "master.iframe"
	MasterPasswordIframeReady Name = "master.iframe_ready"
	MasterPasswordInput       Name = "master.input"
	MasterPasswordFocusFirst  Name = "master.focus_first"
	MasterPasswordRemember    Name = "master.remember"
	MasterPasswordSubmit      Name = "master.submit"
	MasterPasswordProcessing  Name = "master.processing"
	MasterPasswordDialog      Name = "master.dialog"
	MasterPasswordClose       Name = "master.close"
	MasterPasswordCancel      Name = "master.cancel"
)

// Groups.
const (
	GroupRow                Name = "group.row"
	GroupRowState           Name = "group.row_state"
	GroupRowMain            Name = "group.row_main"
	GroupRowMenu            Name = "group.row_menu"
	GroupMenuEdit           Name = "group.menu_edit"
	GroupMenuRemove         Name = "group.menu_remove"
	EditGroupDialog         Name = "group.edit_dialog"
	EditGroupReady          Name = "group.edit_ready"
	GroupEditIframe         Name = "group.edit_iframe"
	GroupEditIframeReady    Name = "group.edit_iframe_ready"
	GroupNameField          Name = "group.name_field"
	GroupAutocompleteInput  Name = "group.autocomplete_input"
	GroupAutocompleteLoaded Name = "group.autocomplete_loaded"
	GroupSave               Name = "group.save"
	GroupMemberRow          Name = "group.member_row"
	GroupMemberRole         Name = "group.member_role"
	GroupMemberDelete       Name = "group.member_delete"
	GroupDetailsMembers     Name = "group.details_members"
	GroupDetailsMemberRow   Name = "group.details_member_row"
	UserGroupsReady         Name = "group.user_groups_ready"
	UserGroupRow            Name = "group.user_group_row"
	UserGroupName           Name = "group.user_group_name"
)

// Confirmation dialog.
const (
	ConfirmDialog     Name = "confirm.dialog"
	ConfirmCloseLink  Name = "confirm.close"
	ConfirmCancelLink Name = "confirm.cancel_link"
	ConfirmOK         Name = "confirm.ok"
	ConfirmButton     Name = "confirm.button"
	ConfirmCancel     Name = "confirm.cancel"
)

// Users.
const (
	UserRow           Name = "user.row"
	UserRowName       Name = "user.row_name"
	UserByFullName    Name = "user.by_full_name"
	CreateUserDialog  Name = "user.create_dialog"
	CreateUserSubmit  Name = "user.create_submit"
	EditUserDialog    Name = "user.edit_dialog"
	EditUserSubmit    Name = "user.edit_submit"
	UserEditButton    Name = "user.edit_button"
	UserDeleteButton  Name = "user.delete_button"
	FirstName         Name = "user.first_name"
	LastName          Name = "user.last_name"
	Username          Name = "user.username"
	RoleAdminCheckbox Name = "user.role_admin"
	RoleAdminChecked  Name = "user.role_admin_checked"
)

// Comments.
const (
	CommentForm     Name = "comment.form"
	PasswordDetails Name = "comment.details"
	CommentContent  Name = "comment.content"
	CommentSubmit   Name = "comment.submit"
	CommentsReady   Name = "comment.ready"
)

// defaults maps every Name to its hook. Bare words are ids first, then CSS.
var defaults = map[Name]string{
	Body:               "body",
	AppRoot:            ".passbolt",
	Container:          "container",
	Head:               "head",
	PageLoaded:         "html.loaded",
	Logout:             ".logout",
	Role:               "html.%s",
	PluginPresent:      "html.passboltplugin",
	PluginAbsent:       "html.no-passboltplugin",
	PluginReady:        "html.passboltplugin-ready",
	PluginConfigured:   "html.passboltplugin-config",
	PluginUnconfigured: "html.passboltplugin.no-passboltconfig",
	Link:               "a",
	Notification:       "#notification_%s",
	Breadcrumb:         "js_wsp_%s_breadcrumb",
	FilterRow:          "#%s .row",
	ToggleButton:       "%s",
	ClipboardArea:      "webdriver-clipboard-content",

	LoginForm:          ".users.login.form",
	LoginIframeReady:   "#passbolt-iframe-login-form.ready",
	LoginPluginCheck:   ".plugin-check.%s.success",
	LoginGPGCheck:      ".plugin-check.gpg.success",
	LoginUsername:      "UserUsername",
	LoginSubmit:        "loginSubmit",
	MasterPasswordPage: ".page.login-form.master-password",

	DebugReady:             ".config.page.ready",
	DebugSettings:          "js_auto_settings",
	DebugDataSet:           ".debug-data-set",
	DebugSaveConfig:        "#js_save_conf",
	DebugConfigFeedback:    ".user.settings.feedback",
	DebugSaveKey:           "#saveKey",
	DebugKeyFeedback:       ".my.key-import.feedback",
	DebugSaveServerKey:     "#saveServerKey",
	DebugServerKeyFeedback: ".server.key-import.feedback",
	DebugInitPagemod:       "initAppPagemod",
	DebugToolbarIcon:       "#simulateToolbarIcon",
	DebugLogs:              "#logsContent",

	ProfileDropdown:  "#js_app_profile_dropdown",
	SettingsPage:     ".page.settings.profile",
	WorkspaceLink:    "#js_app_nav_left_%s_wsp_link a",
	PasswordPage:     ".page.password",
	PeoplePage:       ".page.people",
	CreateButton:     "#js_wsp_create_button",
	CreateMenu:       ".main-action-wrapper ul.dropdown-content",
	CreateUserItem:   ".main-action-wrapper ul.dropdown-content li.create-user",
	CreateGroupItem:  ".main-action-wrapper ul.dropdown-content li.create-group",
	ContextMenu:      "#js_contextual_menu",
	ContextMenuReady: "#js_contextual_menu.ready",

	SetupPluginCheck:        ".plugin-check-wrapper",
	SetupPluginCheckSuccess: ".plugin-check-wrapper .plugin-check.success",
	SetupDomainCheck:        "#js_setup_domain_check",
	SetupStepContentTitle:   "#js_step_content h3",
	SetupStepTitle:          "#js_step_title",
	SetupKeyComment:         "KeyComment",
	SetupPassword:           "js_field_password",
	SetupSubmitEnabled:      "#js_setup_submit_step.enabled",
	SetupImportKeyText:      "js_setup_import_key_text",
	SetupWelcome:            ".information h2",

	PasswordRow:          "#resource_%s",
	PasswordRowName:      "#resource_%s .cell_name",
	PasswordTableRow:     ".tableview-content tr",
	CreatePasswordDialog: ".create-password-dialog",
	CreatePasswordSubmit: ".create-password-dialog input[type=submit]",
	EditPasswordDialog:   ".edit-password-dialog",
	EditPasswordSubmit:   ".edit-password-dialog input[type=submit]",
	EditButton:           "js_wk_menu_edition_button",
	ShareButton:          "js_wk_menu_sharing_button",
	DeleteButton:         "js_wk_menu_deletion_button",
	SecretEditReady:      "#passbolt-iframe-secret-edition.ready",
	ProgressDialog:       "#passbolt-iframe-progress-dialog",
	FieldName:            "js_field_name",
	FieldUsername:        "js_field_username",
	FieldURI:             "js_field_uri",
	FieldDescription:     "js_field_description",
	Secret:               "js_secret",
	SecretDecrypting:     "#js_secret.decrypting",
	SecretStrength:       "#js_secret_strength.%s",
	StrengthBar:          "#js_secret_strength .progress-bar",
	StrengthBarLevel:     "#js_secret_strength .progress-bar.%s",
	ComplexityText:       "#js_secret_strength .complexity-text",

	SharePermissionForm:     "#js_rs_permission",
	ShareDialogReady:        ".share-password-dialog #js_rs_permission.ready",
	ShareDialog:             ".share-password-dialog",
	ShareAroInput:           "js_perm_create_form_aro_auto_cplt",
	SecurityToken:           ".security-token",
	ShareAutocompleteLoaded: "#passbolt-iframe-password-share-autocomplete.loaded",
	AutocompleteContent:     ".autocomplete-content",
	AutocompleteItem:        ".autocomplete-content li",
	ShareChanges:            ".share-password-dialog #js_permissions_changes",
	PermissionsList:         "#js_permissions_list",
	PermissionRow:           "#js_permissions_list li",
	RowLabel:                "*",
	PermissionTypeSelect:    ".js_share_rs_perm_type",
	PermissionDelete:        ".js_perm_delete",
	PermissionTypeByID:      "#js_share_perm_type_%s",
	PermissionDeleteByID:    "#js_share_perm_delete_%s",
	ShareSave:               "js_rs_share_save",
	DialogClose:             ".dialog .dialog-close",
	SidebarPermissionsReady: "#js_rs_details_permissions_list.ready",
	SidebarPermissionRow:    "#js_rs_details_permissions_list li",
	Subinfo:                 ".subinfo",

	MasterPasswordIframe:      "#passbolt-iframe-master-password",
	MasterPasswordIframeReady: "#passbolt-iframe-master-password.ready",
	MasterPasswordInput:       "js_master_password",
	MasterPasswordFocusFirst:  "js_master_password_focus_first",
	MasterPasswordRemember:    "js_remember_master_password",
	MasterPasswordSubmit:      "master-password-submit",
	MasterPasswordProcessing:  "#master-password-submit.processing",
	MasterPasswordDialog:      ".master-password.dialog",
	MasterPasswordClose:       "a.dialog-close",
	MasterPasswordCancel:      "a.js-dialog-close.cancel",

	GroupRow:                "#group_%s",
	GroupRowState:           "#group_%s .row",
	GroupRowMain:            "#group_%s .main-cell",
	GroupRowMenu:            "#group_%s .right-cell a",
	GroupMenuEdit:           "#js_contextual_menu #js_group_browser_menu_edit a",
	GroupMenuRemove:         "#js_contextual_menu #js_group_browser_menu_remove a",
	EditGroupDialog:         ".edit-group-dialog",
	EditGroupReady:          "#js_edit_group.ready",
	GroupEditIframe:         "#passbolt-iframe-group-edit",
	GroupEditIframeReady:    "#passbolt-iframe-group-edit.ready",
	GroupNameField:          "js_field_name",
	GroupAutocompleteInput:  "js_group_edit_form_auto_cplt",
	GroupAutocompleteLoaded: "#passbolt-iframe-group-edit-autocomplete.loaded",
	GroupSave:               ".edit-group-dialog a.button.primary",
	GroupMemberRow:          "#js_permissions_list li",
	GroupMemberRole:         "select",
	GroupMemberDelete:       ".js_group_user_delete",
	GroupDetailsMembers:     "#js_group_details.ready #js_group_details_members",
	GroupDetailsMemberRow:   "#js_group_details_members li",
	UserGroupsReady:         "#js_user_groups_list.ready",
	UserGroupRow:            "#js_user_groups_list li",
	UserGroupName:           ".name",

	ConfirmDialog:     ".dialog.confirm",
	ConfirmCloseLink:  ".dialog.confirm a.dialog-close",
	ConfirmCancelLink: ".dialog.confirm a.cancel",
	ConfirmOK:         ".dialog.confirm input#confirm-button",
	ConfirmButton:     "confirm-button",
	ConfirmCancel:     ".dialog.confirm .js-dialog-cancel",

	UserRow:           "#user_%s",
	UserRowName:       "#user_%s .cell_name",
	UserByFullName:    `.tableview-content div[title="%s"]`,
	CreateUserDialog:  ".create-user-dialog",
	CreateUserSubmit:  ".create-user-dialog input[type=submit]",
	EditUserDialog:    ".edit-user-dialog",
	EditUserSubmit:    ".edit-user-dialog input[type=submit]",
	UserEditButton:    "js_user_wk_menu_edition_button",
	UserDeleteButton:  "js_user_wk_menu_deletion_button",
	FirstName:         "js_field_first_name",
	LastName:          "js_field_last_name",
	Username:          "js_field_username",
	RoleAdminCheckbox: "#js_field_role_id .role-admin input[type=checkbox]",
	RoleAdminChecked:  "#js_field_role_id .role-admin input[type=checkbox][checked=checked]",

	CommentForm:     "#js_rs_details_comments form#js_comment_add_form",
	PasswordDetails: "js_pwd_details",
	CommentContent:  "js_field_comment_content",
	CommentSubmit:   "#js_rs_details_comments a.comment-submit",
	CommentsReady:   "#js_rs_details_comments.ready",
}

// Registry resolves semantic names to selectors. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[Name]string
}

// Default returns a registry holding the built-in hooks.
func Default() *Registry {
	r := &Registry{entries: make(map[Name]string, len(defaults))}
	for k, v := range defaults {
		r.entries[k] = v
	}
	return r
}

// Pattern returns the raw pattern registered for name.
func (r *Registry) Pattern(name Name) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.entries[name]
	return p, ok
}

// Lookup formats the pattern for name with args and resolves it. The number of
// args must match the pattern's %s verbs.
func (r *Registry) Lookup(name Name, args ...any) (browser.Selector, error) {
	p, ok := r.Pattern(name)
	if !ok {
		return browser.Selector{}, fmt.Errorf("%w: %s", ErrUnknownSelector, name)
	}
	if want := strings.Count(p, "%s"); want != len(args) {
		return browser.Selector{}, fmt.Errorf("selector %s takes %d argument(s), got %d", name, want, len(args))
	}
	if len(args) > 0 {
		p = fmt.Sprintf(p, args...)
	}
	return browser.Resolve(p), nil
}

// Get is Lookup for names known at compile time. It panics on a bad name or arity.
func (r *Registry) Get(name Name, args ...any) browser.Selector {
	sel, err := r.Lookup(name, args...)
	if err != nil {
		panic(err)
	}
	return sel
}

// Set replaces the pattern for name.
func (r *Registry) Set(name Name, pattern string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = pattern
}

// Names lists every registered name in sorted order.
func (r *Registry) Names() []Name {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Name, 0, len(r.entries))
	for k := range r.entries {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LoadOverrides reads a YAML map of name to pattern from fsys and applies it.
// Names that do not exist yet are rejected so typos surface early.
func (r *Registry) LoadOverrides(fsys afero.Fs, path string) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to read selector overrides %s: %w", path, err)
	}
	var overrides map[Name]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("failed to parse selector overrides %s: %w", path, err)
	}
	for name := range overrides {
		if _, ok := r.Pattern(name); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSelector, name)
		}
	}
	for name, p := range overrides {
		r.Set(name, p)
	}
	return nil
}
