package domain

import (
	"strings"
	"testing"

	"mnyama/testutil"
)

// TestDomainDoesNotImportInternal enforces the architectural rule that the domain
// layer must not depend on any internal implementation packages.
func TestDomainDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "domain must stay independent of internal packages")
}

// TestDomainHasNoThirdPartyImports keeps the domain package on the standard library.
func TestDomainHasNoThirdPartyImports(t *testing.T) {
	thirdParty := func(path string) bool {
		first := strings.SplitN(path, "/", 2)[0]
		return strings.Contains(first, ".")
	}
	testutil.AssertNoDirectImports(t, ".", thirdParty, "domain is shared with adapters and must not pull dependencies")
}
