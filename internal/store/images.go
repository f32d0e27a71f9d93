package store

import (
	"context"

	"github.com/dgallion1/docdialog/internal/images"
)

const upsertImagePairSQL = `
	INSERT INTO image_text_pairs (pair_id, image_path, image_type, caption_short, caption_detailed, source_document, page_number)
	VALUES (?,?,?,?,?,?,?)
	ON CONFLICT(pair_id) DO UPDATE SET
		image_path=excluded.image_path,
		image_type=excluded.image_type,
		caption_short=excluded.caption_short,
		caption_detailed=excluded.caption_detailed,
		source_document=excluded.source_document,
		page_number=excluded.page_number`

func upsertImagePairs(ctx context.Context, db execer, pairs []images.Pair) error {
	for _, p := range pairs {
		if _, err := db.ExecContext(ctx, upsertImagePairSQL,
			p.PairID, p.ImagePath, p.ImageType, p.CaptionShort, p.CaptionDetailed,
			p.SourceDocument, p.PageNumber); err != nil {
			return err
		}
	}
	return nil
}

// ListImagePairs returns every image/text pair ordered by id.
func (s *Store) ListImagePairs(ctx context.Context) ([]images.Pair, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT pair_id, image_path, image_type, caption_short, caption_detailed, source_document, page_number
		FROM image_text_pairs ORDER BY pair_id`)
	if err != nil {
		return nil, s.wrap("list image pairs", err)
	}
	defer rows.Close()

	var pairs []images.Pair
	for rows.Next() {
		var p images.Pair
		if err := rows.Scan(&p.PairID, &p.ImagePath, &p.ImageType, &p.CaptionShort,
			&p.CaptionDetailed, &p.SourceDocument, &p.PageNumber); err != nil {
			return nil, s.wrap("scan image pair", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list image pairs", err)
	}
	return pairs, nil
}
