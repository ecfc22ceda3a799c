package mysql

// One INSERT per analysis; records are immutable afterwards.
const insertAnalysisSQL = `
INSERT INTO analyses
  (id, owner_id, platform, app_id, app_title, app_info, reviews, statistics,
   categories, ratings, trend, insight_text, warnings, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getAnalysisSQL = `
SELECT
  id, owner_id, platform, app_id, app_info, reviews, statistics,
  categories, ratings, trend, insight_text, warnings, created_at
FROM analyses
WHERE id = ?
`

// Newest first; id breaks ties for records created in the same microsecond.
const listRecentSQL = `
SELECT id, platform, app_id, app_title, statistics, created_at
FROM analyses
WHERE owner_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

// MySQL rejects LIMIT inside IN (...); a derived table in a JOIN is allowed.
const pruneSQL = `
DELETE a FROM analyses a
JOIN (
  SELECT id FROM analyses
  WHERE owner_id = ?
  ORDER BY created_at DESC, id DESC
  LIMIT 18446744073709551615 OFFSET ?
) old ON old.id = a.id
`
