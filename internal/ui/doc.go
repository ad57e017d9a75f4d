// Package ui implements an interactive performance browser using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow:
//  1. [PerformanceListView] : Page through the performance catalogue
//  2. [DetailView] : Read one performance and toggle it as interested
//  3. [SyncView] : Monitor the offline cache sync of interested performances
//  4. [SignInView] : Shown when the session ends; directs the user to sign in again
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// The model subscribes to the session store, so a forced sign-out anywhere in the client switches to [SignInView].
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
