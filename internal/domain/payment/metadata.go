package payment

import (
	"strconv"
	"strings"
)

// メタデータ契約 v1 のキー
// ローカルに保留中注文テーブルを持たない設計のため、
// このメタデータが作成から確定までの購入意図を運ぶ唯一のチャネルになる
const (
	metadataKeySchemaVersion = "schema_version"
	metadataKeyUserID        = "user_id"
	metadataKeyEventID       = "event_id"
	metadataKeySeatIDs       = "seat_ids"
	metadataKeySeatCount     = "seat_count"

	// MetadataSchemaVersion は現行のメタデータ契約バージョン
	MetadataSchemaVersion = "1"
)

// PurchaseMetadata は決済インテントに埋め込む購入メタデータ
type PurchaseMetadata struct {
	UserID  string
	EventID string
	SeatIDs []string
}

// Encode はメタデータ契約 v1 のマップ表現に変換する
func (m *PurchaseMetadata) Encode() map[string]string {
	return map[string]string{
		metadataKeySchemaVersion: MetadataSchemaVersion,
		metadataKeyUserID:        m.UserID,
		metadataKeyEventID:       m.EventID,
		metadataKeySeatIDs:       strings.Join(m.SeatIDs, ","),
		metadataKeySeatCount:     strconv.Itoa(len(m.SeatIDs)),
	}
}

// DecodeMetadata はプロバイダから取得したメタデータを検証付きで復元する
// 欠損・不整合はクラッシュではなく ErrInvalidMetadata に落とす
func DecodeMetadata(raw map[string]string) (*PurchaseMetadata, error) {
	if raw == nil {
		return nil, ErrInvalidMetadata
	}

	eventID := raw[metadataKeyEventID]
	seatIDs := raw[metadataKeySeatIDs]
	if eventID == "" || seatIDs == "" {
		return nil, ErrInvalidMetadata
	}

	ids := strings.Split(seatIDs, ",")
	for _, id := range ids {
		if id == "" {
			return nil, ErrInvalidMetadata
		}
	}

	// seat_count が載っている場合は件数の整合を検証する
	if countStr := raw[metadataKeySeatCount]; countStr != "" {
		count, err := strconv.Atoi(countStr)
		if err != nil || count != len(ids) {
			return nil, ErrInvalidMetadata
		}
	}

	return &PurchaseMetadata{
		UserID:  raw[metadataKeyUserID],
		EventID: eventID,
		SeatIDs: ids,
	}, nil
}
