package sdk

// Section is a navigable area of the admin application.
type Section struct {
	Path       string
	Label      string
	Group      string
	Capability string // empty: any signed-in identity
}

// Navigation groups
const (
	GroupGeneral  = "general"
	GroupPatients = "pacientes"
	GroupAdmin    = "administracion"
	GroupCatalog  = "catalogos"
)

// Sections lists the admin application's navigable areas in menu order.
var Sections = []Section{
	{Path: "/", Label: "Dashboard", Group: GroupGeneral},
	{Path: "/usuarios", Label: "Usuarios", Group: GroupGeneral, Capability: Capability(ActionView, ResourceUser)},
	{Path: "/ninos", Label: "Niños", Group: GroupPatients, Capability: Capability(ActionView, ResourceChild)},
	{Path: "/historiales", Label: "Historial Clínico", Group: GroupPatients, Capability: Capability(ActionView, ResourceClinicalRecord)},
	{Path: "/recomendaciones", Label: "Recomendaciones", Group: GroupPatients, Capability: Capability(ActionView, ResourceRecommendation)},
	{Path: "/roles", Label: "Roles", Group: GroupAdmin, Capability: Capability(ActionView, ResourceRole)},
	{Path: "/permisos", Label: "Permisos", Group: GroupAdmin, Capability: Capability(ActionView, ResourcePermission)},
	{Path: "/registros", Label: "Logs de Actividad", Group: GroupAdmin, Capability: Capability(ActionView, ResourceActivityLog)},
	{Path: "/admin", Label: "Panel de Administración", Group: GroupAdmin, Capability: Capability(ActionView, ResourceRole)},
	{Path: "/alimentos", Label: "Alimentos", Group: GroupCatalog, Capability: Capability(ActionView, ResourceFood)},
	{Path: "/parametros-referenciales", Label: "Parámetros Referenciales", Group: GroupCatalog, Capability: Capability(ActionView, ResourceReferenceParam)},
}

// VisibleSections returns the sections identity may navigate to, in menu order.
// A nil identity sees nothing.
func VisibleSections(identity *Identity) []Section {
	var visible []Section
	for _, section := range Sections {
		if Evaluate(identity, section.Capability) {
			visible = append(visible, section)
		}
	}
	return visible
}
