package manifest

// MergeUpdates applies a partial manifest on top of original and returns the
// result. Neither argument is modified.
//
// Non-empty scalars overwrite. Non-nil lists replace the original list
// wholesale. Author, Components, Hooks, I18n and ConfigSchema merge one level
// deep with the update winning.
func MergeUpdates(original, updates *Manifest) *Manifest {
	out := original.Clone()
	if out == nil {
		out = &Manifest{}
	}
	if updates == nil {
		return out
	}
	upd := updates.Clone()

	setString(&out.ID, upd.ID)
	setString(&out.Name, upd.Name)
	setString(&out.Version, upd.Version)
	setString(&out.Description, upd.Description)
	setString(&out.NubabelVersion, upd.NubabelVersion)
	setString(&out.Category, upd.Category)
	setString(&out.Runtime, upd.Runtime)
	setString(&out.Icon, upd.Icon)

	if upd.Tags != nil {
		out.Tags = upd.Tags
	}
	if upd.Permissions != nil {
		out.Permissions = upd.Permissions
	}
	if upd.Dependencies != nil {
		out.Dependencies = upd.Dependencies
	}
	if upd.Screenshots != nil {
		out.Screenshots = upd.Screenshots
	}

	if upd.Author != nil {
		if out.Author == nil {
			out.Author = &Author{}
		}
		setString(&out.Author.Name, upd.Author.Name)
		setString(&out.Author.Email, upd.Author.Email)
		setString(&out.Author.URL, upd.Author.URL)
	}
	if upd.I18n != nil {
		if out.I18n == nil {
			out.I18n = &I18n{}
		}
		setString(&out.I18n.TranslationsPath, upd.I18n.TranslationsPath)
		setString(&out.I18n.DefaultLocale, upd.I18n.DefaultLocale)
	}

	uc := upd.Components
	if uc.Agents != nil {
		out.Components.Agents = uc.Agents
	}
	if uc.Skills != nil {
		out.Components.Skills = uc.Skills
	}
	if uc.MCPTools != nil {
		out.Components.MCPTools = uc.MCPTools
	}
	if uc.Workflows != nil {
		out.Components.Workflows = uc.Workflows
	}
	if uc.UIComponents != nil {
		out.Components.UIComponents = uc.UIComponents
	}
	if uc.Routes != nil {
		out.Components.Routes = uc.Routes
	}

	for slot, p := range upd.Hooks.Declared() {
		out.Hooks.set(slot, p)
	}

	if upd.ConfigSchema != nil {
		if out.ConfigSchema == nil {
			out.ConfigSchema = make(map[string]interface{}, len(upd.ConfigSchema))
		}
		for k, v := range upd.ConfigSchema {
			out.ConfigSchema[k] = v
		}
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
