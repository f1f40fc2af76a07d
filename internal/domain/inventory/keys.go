package inventory

import (
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LockOrder devuelve las llaves sin duplicados y ordenadas por su forma canónica.
// Todo camino de escritura bloquea en este orden para evitar deadlocks entre
// traslados en sentidos opuestos.
func LockOrder(keys []entity.StockKey) []entity.StockKey {
	seen := make(map[string]struct{}, len(keys))
	out := make([]entity.StockKey, 0, len(keys))
	for _, k := range keys {
		s := k.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
