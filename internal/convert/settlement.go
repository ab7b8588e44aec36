package convert

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

// settlementNamespace scopes the name-based UUIDs given to settlement
// records.
var settlementNamespace = uuid.MustParse("8f0b7c52-4a1e-5d0e-9b57-2c6f3f4e2a10")

// SettlementID derives a stable identifier for a record from its venue,
// kind, source id, contract and timestamp, so the same ledger event always
// gets the same ID across syncs.
func SettlementID(r domain.SettlementRecord) string {
	name := string(r.Venue) + "|" + string(r.Kind) + "|" + r.SourceID + "|" +
		r.Contract + "|" + strconv.FormatInt(r.Timestamp, 10)
	return uuid.NewSHA1(settlementNamespace, []byte(name)).String()
}
