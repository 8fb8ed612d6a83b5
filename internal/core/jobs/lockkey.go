package jobs

import "hash/fnv"

// DomesticSyncLockKey guards a whole domestic sync cycle.
const DomesticSyncLockKey int64 = 0x5348_5053_594e_4331

// shipmentKeyBase offsets per-shipment keys away from DomesticSyncLockKey.
const shipmentKeyBase int64 = 1 << 40

// ShipmentLockKey maps a shipment id deterministically into
// [shipmentKeyBase, shipmentKeyBase+2^31). Collisions between unrelated ids
// only cost one skipped cycle; the version check still guards the row.
func ShipmentLockKey(shipmentID string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(shipmentID))
	return shipmentKeyBase + int64(h.Sum32()&0x7fffffff)
}
