package browser

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
	"github.com/xkilldash9x/teralink/internal/fingerprint"
)

func profileFixture() schemas.Profile {
	return fingerprint.NewSeededGenerator(1, zap.NewNop()).Generate()
}
