package shikimori

const searchQuery = `query($search: String, $limit: PositiveInt) {
  animes(search: $search, limit: $limit) {
    id
    name
    russian
  }
}`

const detailQuery = `query($ids: String) {
  animes(ids: $ids, limit: 1) {
    id
    score
    episodes
    status
    url
    genres { name russian }
    studios { name }
    externalLinks { kind url }
  }
}`
