package backfill

import (
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"factoryMonitor/internal/model"
)

func toBlockLog(log types.Log) model.BlockLog {
	topics := make([]string, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, topic.Hex())
	}
	index := model.Uint64(log.Index)
	return model.BlockLog{
		Account:     model.LogAccount{Address: log.Address.Hex()},
		Data:        hexutil.Encode(log.Data),
		Topics:      topics,
		Transaction: model.LogTransaction{Hash: log.TxHash.Hex()},
		Index:       &index,
	}
}

// groupBlocks turns a flat log list into per-block payloads in chain order.
// Removed (reorged) logs are dropped.
func groupBlocks(logs []types.Log) []*model.Block {
	sorted := make([]types.Log, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			continue
		}
		sorted = append(sorted, log)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BlockNumber != sorted[j].BlockNumber {
			return sorted[i].BlockNumber < sorted[j].BlockNumber
		}
		return sorted[i].Index < sorted[j].Index
	})

	var blocks []*model.Block
	for _, log := range sorted {
		if len(blocks) == 0 || uint64(blocks[len(blocks)-1].Number) != log.BlockNumber {
			blocks = append(blocks, &model.Block{Number: model.Uint64(log.BlockNumber)})
		}
		current := blocks[len(blocks)-1]
		current.Logs = append(current.Logs, toBlockLog(log))
	}
	return blocks
}
