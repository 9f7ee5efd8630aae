package cli

// Export internal functions for testing.

// RunInteractive exports runInteractive for testing.
var RunInteractive = runInteractive

// RunSilent exports runSilent for testing.
var RunSilent = runSilent

// RunCheck exports runCheck for testing.
var RunCheck = runCheck

// RunConfigSet exports runConfigSet for testing.
var RunConfigSet = runConfigSet

// RunConfigGet exports runConfigGet for testing.
var RunConfigGet = runConfigGet

// RunConfigList exports runConfigList for testing.
var RunConfigList = runConfigList

// ResolvePaths exports resolvePaths for testing.
var ResolvePaths = resolvePaths

// Hint exports hint for testing.
var Hint = hint

// LaunchOptions exports launchOptions for testing.
type LaunchOptions = launchOptions
